package flow

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner reclaims abandoned in-memory flows on a schedule. The Redis
// backend expires keys on its own and does not need one.
type Cleaner struct {
	storage  *MemoryStorage
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(storage *MemoryStorage, log *slog.Logger, ttl, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		storage:  storage,
		log:      log,
		ttl:      ttl,
		interval: interval,
	}
}

// Run starts the cleanup loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.storage == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("flow cleaner stopped")
			return
		case <-ticker.C:
			if removed := c.storage.Cleanup(c.ttl); removed > 0 {
				c.log.Info("abandoned flows reclaimed", slog.Int("count", removed))
			}
		}
	}
}

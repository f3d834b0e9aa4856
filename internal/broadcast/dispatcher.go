// Package broadcast fans a message out to every registered user.
package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mailstore-bot/pkg/metrics"
)

// Sender delivers one message to one recipient.
type Sender interface {
	Send(ctx context.Context, userID int64, text string) error
}

// Recipients lists the target audience.
type Recipients interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

// Result summarizes a finished broadcast run.
type Result struct {
	Sent   int
	Failed int
}

// Config tunes delivery pacing.
type Config struct {
	// SendTimeout bounds each individual delivery.
	SendTimeout time.Duration
	// Pace is the pause between consecutive deliveries so the run stays
	// under the Telegram flood limits.
	Pace time.Duration
}

// Dispatcher sends a message to every user sequentially. A failed delivery
// (blocked bot, deleted account) is counted and skipped, never retried.
type Dispatcher struct {
	sender     Sender
	recipients Recipients
	mu         sync.RWMutex
	cfg        Config
	log        *slog.Logger
}

// NewDispatcher constructs a broadcast dispatcher.
func NewDispatcher(sender Sender, recipients Recipients, cfg Config, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}

	return &Dispatcher{
		sender:     sender,
		recipients: recipients,
		cfg:        cfg,
		log:        log,
	}
}

// UpdateConfig swaps the pacing tunables, used by config hot reload. Runs
// already in flight keep their settings.
func (d *Dispatcher) UpdateConfig(cfg Config) {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}

	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
}

func (d *Dispatcher) config() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Broadcast delivers text to every registered user and reports per-recipient
// outcomes. Cancelling ctx stops the run; counts cover only the attempts made
// before cancellation.
func (d *Dispatcher) Broadcast(ctx context.Context, text string) (Result, error) {
	cfg := d.config()

	ids, err := d.recipients.ListIDs(ctx)
	if err != nil {
		return Result{}, err
	}

	started := time.Now()
	var result Result

	for i, userID := range ids {
		if err := ctx.Err(); err != nil {
			d.log.Warn("broadcast interrupted",
				slog.Int("sent", result.Sent),
				slog.Int("failed", result.Failed),
				slog.Int("remaining", len(ids)-i),
			)
			return result, err
		}

		if err := d.send(ctx, cfg.SendTimeout, userID, text); err != nil {
			result.Failed++
			metrics.RecordBroadcastDelivery("failed")
			d.log.Debug("broadcast delivery failed",
				slog.Int64("user_id", userID),
				slog.Any("error", err),
			)
		} else {
			result.Sent++
			metrics.RecordBroadcastDelivery("sent")
		}

		if cfg.Pace > 0 && i < len(ids)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(cfg.Pace):
			}
		}
	}

	d.log.Info("broadcast finished",
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed),
		slog.Duration("took", time.Since(started)),
	)

	return result, nil
}

func (d *Dispatcher) send(ctx context.Context, timeout time.Duration, userID int64, text string) error {
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return d.sender.Send(sendCtx, userID, text)
}

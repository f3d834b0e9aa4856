// Package idempotency deduplicates updates that Telegram may deliver more
// than once, such as a double-tapped inline button.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Guard answers whether a keyed action runs now or has already run recently.
type Guard interface {
	// Acquire returns true exactly once per key within ttl. Subsequent
	// calls with the same key return false until the entry expires.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Key builds a deterministic guard key from the provided parts.
func Key(parts ...interface{}) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v:", part)
	}

	return hex.EncodeToString(h.Sum(nil))
}

type memoryEntry struct {
	expiresAt time.Time
}

// MemoryGuard is the in-process fallback when Redis is not configured.
type MemoryGuard struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryGuard constructs an in-memory Guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{entries: make(map[string]memoryEntry)}
}

// Acquire implements Guard. Expired entries are reaped lazily on each call.
func (g *MemoryGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	for k, entry := range g.entries {
		if entry.expiresAt.Before(now) {
			delete(g.entries, k)
		}
	}

	if _, held := g.entries[key]; held {
		return false, nil
	}

	g.entries[key] = memoryEntry{expiresAt: now.Add(ttl)}
	return true, nil
}

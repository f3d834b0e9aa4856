package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gopkg.in/telebot.v3"

	"mailstore-bot/internal/ratelimit"
	"mailstore-bot/pkg/config"
)

// RateLimitMiddleware enforces per-user rate limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	mu      sync.RWMutex
	cfg     config.RateLimitConfig
	adminID int64
	log     *slog.Logger
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
// The admin bypasses the limit so a flood of buyers cannot lock them out.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, cfg config.RateLimitConfig, adminID int64, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		cfg:     cfg,
		adminID: adminID,
		log:     log,
	}
}

// UpdateConfig swaps the limiter tunables, used by config hot reload.
func (m *RateLimitMiddleware) UpdateConfig(cfg config.RateLimitConfig) {
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
}

func (m *RateLimitMiddleware) config() config.RateLimitConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Handle returns a telebot middleware that enforces per-user rate limits.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		cfg := m.config()
		if m.limiter == nil || !cfg.Enabled {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil {
			return next(c)
		}

		userID := sender.ID
		if userID == m.adminID {
			return next(c)
		}

		key := fmt.Sprintf("user:%d", userID)
		result, err := m.limiter.Check(context.Background(), key, cfg.Limit, cfg.Window)
		if err != nil && result == nil {
			m.log.Warn("rate limiter error", slog.Int64("user_id", userID), slog.Any("error", err))
			return next(c)
		}

		if result != nil && !result.Allowed {
			m.log.Warn("rate limit exceeded", slog.Int64("user_id", userID))
			return c.Send("Rate limit exceeded. Try again later.")
		}

		return next(c)
	}
}

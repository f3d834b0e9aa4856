package middleware

import (
	"context"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"mailstore-bot/internal/bot/handlers"
	"mailstore-bot/internal/idempotency"
)

const dedupTTL = 24 * time.Hour

// Dedup drops updates the guard has already seen. Telegram re-delivers
// callbacks on network hiccups and users double-tap inline buttons; without
// this a second approve tap would race the first.
func Dedup(guard idempotency.Guard, log *slog.Logger) handlers.Middleware {
	if guard == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := extractDedupKey(c)
			if key == "" {
				return next(c)
			}

			acquired, err := guard.Acquire(context.Background(), key, dedupTTL)
			if err != nil {
				// Guard failures must not drop real updates.
				log.Warn("dedup guard unavailable", slog.Any("error", err))
				return next(c)
			}
			if !acquired {
				log.Info("duplicate update dropped", slog.String("key", key))
				return nil
			}

			return next(c)
		}
	}
}

func extractDedupKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	if cb := c.Callback(); cb != nil {
		if cb.ID != "" {
			return idempotency.Key("cb", cb.ID)
		}

		if cb.Message != nil {
			chatID := int64(0)
			if cb.Message.Chat != nil {
				chatID = cb.Message.Chat.ID
			}
			return idempotency.Key("cb-msg", chatID, cb.Message.ID, cb.Data)
		}
	}

	if msg := c.Message(); msg != nil && msg.ID != 0 {
		chatID := int64(0)
		if msg.Chat != nil {
			chatID = msg.Chat.ID
		}
		return idempotency.Key("msg", chatID, msg.ID)
	}

	return ""
}

package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"mailstore-bot/internal/bot/handlers"
	"mailstore-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		command := extractCommandName(c)
		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(command, status, time.Since(start))

		return err
	}
}

// extractCommandName reduces an update to a low-cardinality label. Callback
// payloads and free text would otherwise explode the label space.
func extractCommandName(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil && cb.Data != "" {
		unique := cb.Data
		if idx := strings.Index(unique, ":"); idx > 0 {
			unique = unique[:idx]
		}
		return "cb_" + unique
	}

	if text := c.Text(); strings.HasPrefix(text, "/") {
		if idx := strings.IndexAny(text, " @"); idx > 0 {
			text = text[:idx]
		}
		return text
	}

	if c.Message() != nil && c.Message().Document != nil {
		return "document"
	}

	return "text"
}

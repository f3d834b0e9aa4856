package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"mailstore-bot/internal/bot/keyboard"
)

// NewStartHandler greets the user and shows the main menu. User registration
// happens in the upsert middleware before this runs.
func NewStartHandler(adminID int64, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			log.Warn("start handler invoked without sender")
			return nil
		}

		return c.Send("👋 Welcome! Looking for a fresh mail account?", keyboard.MainMenu(sender.ID == adminID))
	}
}

package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"mailstore-bot/internal/bot/keyboard"
	"mailstore-bot/internal/flow"
)

// NewCancelHandler abandons every open flow and returns the user to the main
// menu. Safe to call with nothing in progress.
func NewCancelHandler(tracker *flow.Tracker, adminID int64, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		if err := tracker.Cancel(context.Background(), sender.ID); err != nil {
			log.Error("failed to cancel flows", slog.Int64("user_id", sender.ID), slog.Any("error", err))
			return err
		}

		return c.Send("Operation cancelled. Returning to main menu.", keyboard.MainMenu(sender.ID == adminID))
	}
}

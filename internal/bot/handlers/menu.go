package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"mailstore-bot/internal/bot/keyboard"
	"mailstore-bot/internal/domain"
	"mailstore-bot/internal/repository"
)

// Inbox checker destinations for purchased accounts.
const (
	gmailInboxContact = "@CodeReciever71bot"
	otherInboxURL     = "https://dongvanfb.net/read_mail_box/"
)

// NewBalanceHandler shows the user's current balance and purchase count.
func NewBalanceHandler(users repository.UserRepository, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		user, err := users.FindByID(context.Background(), sender.ID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return c.Send("💰 Your Balance: 0.00 tk")
			}
			return err
		}

		return c.Send(fmt.Sprintf("💰 Your Balance: %s\n🛍 Purchased: %d", domain.FormatAmount(user.Balance), user.Purchased))
	}
}

// NewInboxHandler shows the inbox checker menu.
func NewInboxHandler(kb *keyboard.Builder) Handler {
	return func(c telebot.Context) error {
		return c.Send("📥 Which inbox do you want to check?", kb.InboxMenu())
	}
}

// NewInboxLinkHandler points the user at the code receiver for the chosen
// provider.
func NewInboxLinkHandler() CallbackHandler {
	return func(c telebot.Context) error {
		provider := callbackPayload(c)

		defer respondCallback(c)

		if provider == "gmail" {
			return c.Send("➡️ To receive Gmail codes go to: " + gmailInboxContact)
		}

		return c.Send("➡️ For Hotmail/Outlook codes go to:\n" + otherInboxURL)
	}
}

// NewSupportHandler links the user to the configured support contact.
func NewSupportHandler(settings repository.SettingsRepository, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		username, err := settings.Get(context.Background(), repository.KeySupportUsername)
		if err != nil {
			if errors.Is(err, repository.ErrSettingNotFound) {
				return c.Send("❌ Support not set by admin.")
			}
			return err
		}

		markup := kb.URLButton("📩 Mail Bot Support", "https://t.me/"+username)
		return c.Send("If you run into any problem, tap the support button below.", markup)
	}
}

// NewTutorialHandler links the user to the configured tutorial video.
func NewTutorialHandler(settings repository.SettingsRepository, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		link, err := settings.Get(context.Background(), repository.KeyTutorialLink)
		if err != nil {
			if errors.Is(err, repository.ErrSettingNotFound) {
				return c.Send("❌ Tutorial link not set yet.")
			}
			return err
		}

		markup := kb.URLButton("📚 Mail Bot Tutorial", link)
		return c.Send("📚 Mail Bot Tutorial\n\nTap the button below to watch the tutorial video! 🎯", markup)
	}
}

// callbackPayload returns the data part of the pressed button's callback.
func callbackPayload(c telebot.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}

	_, data, err := keyboard.DecodeCallback(cb.Data)
	if err != nil {
		return ""
	}

	return data
}

// respondCallback acknowledges the callback so the client stops its spinner.
func respondCallback(c telebot.Context) {
	if c.Callback() != nil {
		_ = c.Respond()
	}
}

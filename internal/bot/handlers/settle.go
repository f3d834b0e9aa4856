package handlers

import (
	"context"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	apperrors "mailstore-bot/internal/errors"
	"mailstore-bot/internal/ledger"
)

// NewDepositDecisionHandler applies an approve or reject tap on a pending
// deposit. The engine refuses deposits that are missing or already decided,
// so a duplicate tap cannot credit twice.
func NewDepositDecisionHandler(engine *ledger.Engine, decision ledger.Decision, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		defer respondCallback(c)

		depositID, err := strconv.ParseInt(callbackPayload(c), 10, 64)
		if err != nil {
			return apperrors.NewValidationError("Malformed deposit reference.")
		}

		if _, err := engine.SettleDeposit(context.Background(), depositID, decision); err != nil {
			return err
		}

		if decision == ledger.DecisionApprove {
			return editOrSend(c, "✅ Approved and processed.", nil)
		}

		return editOrSend(c, "❌ Rejected.", nil)
	}
}

// editOrSend updates the originating message in place, falling back to a new
// message when the original is too old to edit.
func editOrSend(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	var err error
	if markup != nil {
		err = c.Edit(text, markup)
	} else {
		err = c.Edit(text)
	}
	if err == nil {
		return nil
	}

	if markup != nil {
		return c.Send(text, markup)
	}
	return c.Send(text)
}

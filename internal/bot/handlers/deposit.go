package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"mailstore-bot/internal/bot/keyboard"
	"mailstore-bot/internal/domain"
	apperrors "mailstore-bot/internal/errors"
	"mailstore-bot/internal/flow"
	"mailstore-bot/internal/repository"
	"mailstore-bot/pkg/config"
)

// NewDepositMenuHandler shows the payment method picker.
func NewDepositMenuHandler(store config.StoreConfig, kb *keyboard.Builder) Handler {
	return func(c telebot.Context) error {
		text := fmt.Sprintf("💳 Select Payment Method:\n\n⚠️ Minimum deposit is %s.", domain.FormatAmount(store.MinDeposit))
		return c.Send(text, kb.PaymentMethods())
	}
}

// NewDepositMethodHandler opens the deposit wizard with the chosen method and
// asks for the sender number.
func NewDepositMethodHandler(tracker *flow.Tracker, store config.StoreConfig, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		method := callbackPayload(c)
		defer respondCallback(c)

		number, ok := store.PaymentNumber(method)
		if !ok {
			return apperrors.NewValidationError("Unknown payment method.")
		}

		err := tracker.Begin(context.Background(), sender.ID, flow.KindDeposit, map[flow.Field]string{
			flow.FieldMethod: method,
		})
		if err != nil {
			if errors.Is(err, flow.ErrFlowExists) {
				return c.Send("You already have a deposit in progress. Send /cancel to start over.")
			}
			return err
		}

		return c.Send(fmt.Sprintf("📲 Send Money to: <b>%s</b>\n\nNow send the number you sent from (sender number):", number))
	}
}

// NewDepositFinisher records the completed deposit request and forwards it to
// the admin with approve/reject buttons.
func NewDepositFinisher(deposits repository.DepositRepository, kb *keyboard.Builder, adminID int64, log *slog.Logger) FlowFinisher {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context, f *flow.Flow) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		amount, err := domain.ParseAmount(f.Get(flow.FieldAmount))
		if err != nil {
			return apperrors.NewValidationError("Enter a valid number (e.g., 100).")
		}

		deposit := &domain.Deposit{
			UserID:       sender.ID,
			Method:       f.Get(flow.FieldMethod),
			SenderNumber: f.Get(flow.FieldNumber),
			Amount:       amount,
			TxID:         f.Get(flow.FieldTxID),
			Status:       domain.DepositPending,
		}

		depositID, err := deposits.Create(context.Background(), deposit)
		if err != nil {
			return err
		}

		username := sender.Username
		if username == "" {
			username = "NoUsername"
		}

		adminText := fmt.Sprintf(
			"💳 Deposit Request\n\n👤 User: @%s\n🆔 ID: %d\n💳 Method: %s\n📞 Number: %s\n💵 Amount: %s\n🔑 TxID: %s\n🆔 Deposit ID: %d",
			username, sender.ID, deposit.Method, deposit.SenderNumber,
			domain.FormatAmount(deposit.Amount), deposit.TxID, depositID,
		)

		if _, err := c.Bot().Send(&telebot.User{ID: adminID}, adminText, kb.DepositDecision(depositID)); err != nil {
			log.Error("failed to forward deposit request to admin",
				slog.Int64("deposit_id", depositID),
				slog.Any("error", err),
			)
		}

		return c.Send("✅ Deposit request sent! Waiting for approval.")
	}
}

// Package ledger implements the two money-moving operations of the store:
// deposit settlement and stock purchase.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mailstore-bot/internal/domain"
	apperrors "mailstore-bot/internal/errors"
	"mailstore-bot/internal/repository"
	"mailstore-bot/pkg/config"
	"mailstore-bot/pkg/metrics"
)

// Decision is an admin's verdict on a pending deposit.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Notifier delivers a best-effort message to a single user. Failures are
// logged, never propagated into the settlement.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// Purchase is the outcome of a successful PurchaseStock call.
type Purchase struct {
	Service     string
	Quantity    int
	UnitPrice   int64
	TotalPrice  int64
	Credentials []string
}

// Engine validates and applies balance/inventory mutations against the
// ledger store. Each operation is a single atomic step; concurrent calls can
// never consume overlapping stock or spend balance the user does not have.
type Engine struct {
	ledger   repository.LedgerRepository
	store    config.StoreConfig
	notifier Notifier
	log      *slog.Logger
}

// NewEngine constructs a transaction engine.
func NewEngine(ledger repository.LedgerRepository, store config.StoreConfig, notifier Notifier, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		ledger:   ledger,
		store:    store,
		notifier: notifier,
		log:      log,
	}
}

// PurchaseStock sells quantity credentials of the given service to the user:
// it atomically consumes the stock rows, debits totalPrice, and bumps the
// purchase counter. Returned credentials are in selection order.
func (e *Engine) PurchaseStock(ctx context.Context, userID int64, service string, quantity int) (*Purchase, error) {
	if quantity < 1 {
		return nil, apperrors.NewValidationError("Quantity must be at least 1.")
	}

	unitPrice, ok := e.store.Price(service)
	if !ok {
		return nil, apperrors.NewNotFoundError("service")
	}
	totalPrice := unitPrice * int64(quantity)

	credentials, err := e.ledger.PurchaseTx(ctx, userID, service, quantity, totalPrice)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientStock):
			return nil, apperrors.NewInsufficientStockError()
		case errors.Is(err, repository.ErrInsufficientBalance):
			return nil, apperrors.NewInsufficientBalanceError()
		default:
			return nil, apperrors.NewDatabaseError(err)
		}
	}

	metrics.RecordPurchase(service, quantity, totalPrice)

	return &Purchase{
		Service:     service,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalPrice:  totalPrice,
		Credentials: credentials,
	}, nil
}

// SettleDeposit applies an admin decision to a pending deposit. Approval
// credits the claimed amount to the owner's balance atomically with the
// status flip; rejection only flips the status. A deposit that is missing or
// already decided is refused, so a duplicate tap cannot credit twice. The
// depositor is notified best-effort after commit.
func (e *Engine) SettleDeposit(ctx context.Context, depositID int64, decision Decision) (*domain.Deposit, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, apperrors.NewValidationError(fmt.Sprintf("Unknown decision %q.", decision))
	}

	deposit, err := e.ledger.SettleTx(ctx, depositID, decision == DecisionApprove)
	if err != nil {
		if errors.Is(err, repository.ErrDepositNotPending) {
			return nil, apperrors.NewNotFoundError("deposit")
		}
		return nil, apperrors.NewDatabaseError(err)
	}

	metrics.RecordDepositSettled(string(decision))
	e.notifyDepositor(ctx, deposit)

	return deposit, nil
}

func (e *Engine) notifyDepositor(ctx context.Context, deposit *domain.Deposit) {
	if e.notifier == nil || deposit == nil {
		return
	}

	var text string
	if deposit.Status == domain.DepositApproved {
		text = fmt.Sprintf("✅ Your deposit of %s has been approved! Balance updated.", domain.FormatAmount(deposit.Amount))
	} else {
		text = "❌ Your deposit has been rejected."
	}

	if err := e.notifier.Notify(ctx, deposit.UserID, text); err != nil {
		e.log.Warn("failed to notify depositor",
			slog.Int64("user_id", deposit.UserID),
			slog.Int64("deposit_id", deposit.ID),
			slog.Any("error", err),
		)
	}
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"mailstore-bot/internal/domain"
)

// Sentinel failures of the compound ledger transactions.
var (
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDepositNotPending   = errors.New("deposit not pending")
)

// LedgerRepository executes the two money-moving compound operations. Each
// runs inside a single transaction with row locks so concurrent calls can
// never consume the same stock row or spend the same balance twice.
type LedgerRepository interface {
	PurchaseTx(ctx context.Context, userID int64, service string, quantity int, totalPrice int64) ([]string, error)
	SettleTx(ctx context.Context, depositID int64, approve bool) (*domain.Deposit, error)
}

type ledgerRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewLedgerRepository creates a new SQL-backed ledger repository.
func NewLedgerRepository(db *sql.DB, log *slog.Logger) LedgerRepository {
	return &ledgerRepository{
		db:  db,
		log: log,
	}
}

// PurchaseTx atomically consumes quantity stock rows for the service, debits
// the user's balance, and increments the purchase counter. Stock rows are
// taken in first-available (insertion) order and locked until commit.
func (r *ledgerRepository) PurchaseTx(ctx context.Context, userID int64, service string, quantity int, totalPrice int64) ([]string, error) {
	const selectStock = `
		SELECT id, credential
		FROM stock
		WHERE service = $1
		ORDER BY id
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`
	const debitBalance = `
		UPDATE users
		SET balance = balance - $2, purchased = purchased + $3
		WHERE telegram_id = $1 AND balance >= $2
	`
	const deleteStock = `DELETE FROM stock WHERE id = ANY($1)`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin purchase: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, selectStock, service, quantity)
	if err != nil {
		return nil, fmt.Errorf("select stock: %w", err)
	}

	var (
		ids         []int64
		credentials []string
	)
	for rows.Next() {
		var id int64
		var credential string
		if err := rows.Scan(&id, &credential); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan stock row: %w", err)
		}
		ids = append(ids, id)
		credentials = append(credentials, credential)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate stock rows: %w", err)
	}
	rows.Close()

	if len(ids) < quantity {
		return nil, ErrInsufficientStock
	}

	result, err := tx.ExecContext(ctx, debitBalance, userID, totalPrice, quantity)
	if err != nil {
		return nil, fmt.Errorf("debit balance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("debit balance rows: %w", err)
	}
	if affected == 0 {
		return nil, ErrInsufficientBalance
	}

	if _, err := tx.ExecContext(ctx, deleteStock, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("delete stock: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit purchase: %w", err)
	}

	if r.log != nil {
		r.log.Info("purchase committed",
			slog.Int64("user_id", userID),
			slog.String("service", service),
			slog.Int("quantity", quantity),
			slog.Int64("total_price", totalPrice),
		)
	}

	return credentials, nil
}

// SettleTx flips a pending deposit to its terminal status and, on approval,
// credits the owner's balance in the same transaction. A deposit that is
// missing or already decided yields ErrDepositNotPending so a duplicate
// admin tap can never credit twice.
func (r *ledgerRepository) SettleTx(ctx context.Context, depositID int64, approve bool) (*domain.Deposit, error) {
	const decide = `
		UPDATE deposits
		SET status = $2, decided_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING id, user_id, method, sender_number, amount, txid, status, created_at, decided_at
	`
	const credit = `UPDATE users SET balance = balance + $2 WHERE telegram_id = $1`

	status := domain.DepositRejected
	if approve {
		status = domain.DepositApproved
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin settle: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	deposit, err := scanDeposit(tx.QueryRowContext(ctx, decide, depositID, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDepositNotPending
		}
		return nil, fmt.Errorf("decide deposit: %w", err)
	}

	if approve {
		if _, err := tx.ExecContext(ctx, credit, deposit.UserID, deposit.Amount); err != nil {
			return nil, fmt.Errorf("credit balance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settle: %w", err)
	}

	if r.log != nil {
		r.log.Info("deposit settled",
			slog.Int64("deposit_id", depositID),
			slog.Int64("user_id", deposit.UserID),
			slog.String("status", string(deposit.Status)),
		)
	}

	return deposit, nil
}

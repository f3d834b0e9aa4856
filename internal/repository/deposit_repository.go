package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"mailstore-bot/internal/domain"
)

// ErrDepositNotFound indicates that no deposit row matched the given id.
var ErrDepositNotFound = errors.New("deposit not found")

// DepositRepository defines persistence operations for deposit claims.
// Status transitions happen only through the ledger engine's settle
// transaction, never here.
type DepositRepository interface {
	Create(ctx context.Context, deposit *domain.Deposit) (int64, error)
	FindByID(ctx context.Context, id int64) (*domain.Deposit, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Deposit, error)
}

type depositRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewDepositRepository creates a new SQL-backed deposit repository.
func NewDepositRepository(db *sql.DB, log *slog.Logger) DepositRepository {
	return &depositRepository{
		db:  db,
		log: log,
	}
}

// Create persists a new pending deposit claim and returns its id.
func (r *depositRepository) Create(ctx context.Context, deposit *domain.Deposit) (int64, error) {
	const query = `
		INSERT INTO deposits (user_id, method, sender_number, amount, txid)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(
		ctx,
		query,
		deposit.UserID,
		deposit.Method,
		deposit.SenderNumber,
		deposit.Amount,
		deposit.TxID,
	).Scan(&id); err != nil {
		if r.log != nil {
			r.log.Error("failed to create deposit", slog.Int64("user_id", deposit.UserID), slog.Any("error", err))
		}
		return 0, fmt.Errorf("insert deposit: %w", err)
	}

	return id, nil
}

// FindByID retrieves one deposit claim.
func (r *depositRepository) FindByID(ctx context.Context, id int64) (*domain.Deposit, error) {
	const query = `
		SELECT id, user_id, method, sender_number, amount, txid, status, created_at, decided_at
		FROM deposits
		WHERE id = $1
	`

	deposit, err := scanDeposit(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDepositNotFound
		}
		return nil, fmt.Errorf("select deposit: %w", err)
	}

	return deposit, nil
}

// ListRecent returns the latest deposit claims, newest first.
func (r *depositRepository) ListRecent(ctx context.Context, limit int) ([]domain.Deposit, error) {
	const query = `
		SELECT id, user_id, method, sender_number, amount, txid, status, created_at, decided_at
		FROM deposits
		ORDER BY id DESC
		LIMIT $1
	`

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list deposits: %w", err)
	}
	defer rows.Close()

	var deposits []domain.Deposit
	for rows.Next() {
		deposit, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deposit: %w", err)
		}
		deposits = append(deposits, *deposit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deposits: %w", err)
	}

	return deposits, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeposit(row rowScanner) (*domain.Deposit, error) {
	var deposit domain.Deposit
	var decidedAt sql.NullTime

	if err := row.Scan(
		&deposit.ID,
		&deposit.UserID,
		&deposit.Method,
		&deposit.SenderNumber,
		&deposit.Amount,
		&deposit.TxID,
		&deposit.Status,
		&deposit.CreatedAt,
		&decidedAt,
	); err != nil {
		return nil, err
	}

	if decidedAt.Valid {
		deposit.DecidedAt = &decidedAt.Time
	}

	return &deposit, nil
}

// Package repository provides SQL-backed persistence for the storefront ledger.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mailstore-bot/internal/domain"
)

// ErrUserNotFound indicates that no user row matched the given telegram id.
var ErrUserNotFound = errors.New("user not found")

// BalanceOp selects how an admin override changes a balance.
type BalanceOp string

const (
	BalanceAdd      BalanceOp = "add"
	BalanceSet      BalanceOp = "set"
	BalanceSubtract BalanceOp = "subtract"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Upsert(ctx context.Context, telegramID int64, username string) error
	FindByID(ctx context.Context, telegramID int64) (*domain.User, error)
	AdjustBalance(ctx context.Context, telegramID int64, op BalanceOp, amount int64) error
	Count(ctx context.Context) (int, error)
	ListIDs(ctx context.Context) ([]int64, error)
	TopByBalance(ctx context.Context, limit int) ([]domain.User, error)
	ActivityStats(ctx context.Context, now time.Time) (*domain.ActivityStats, error)
}

type userRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewUserRepository creates a new SQL-backed user repository.
func NewUserRepository(db *sql.DB, log *slog.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log,
	}
}

// Upsert inserts the user if absent and unconditionally refreshes the handle
// and last-activity timestamp. Users are never deleted.
func (r *userRepository) Upsert(ctx context.Context, telegramID int64, username string) error {
	const query = `
		INSERT INTO users (telegram_id, username, last_active_at)
		VALUES ($1, $2, now())
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			last_active_at = now()
	`

	if username == "" {
		username = "NoUsername"
	}

	if _, err := r.db.ExecContext(ctx, query, telegramID, username); err != nil {
		if r.log != nil {
			r.log.Error("failed to upsert user", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
		}
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

// FindByID retrieves a user by their telegram identifier.
func (r *userRepository) FindByID(ctx context.Context, telegramID int64) (*domain.User, error) {
	const query = `
		SELECT telegram_id, username, balance, purchased, last_active_at, created_at
		FROM users
		WHERE telegram_id = $1
	`

	row := r.db.QueryRowContext(ctx, query, telegramID)

	var user domain.User
	if err := row.Scan(
		&user.TelegramID,
		&user.Username,
		&user.Balance,
		&user.Purchased,
		&user.LastActiveAt,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		if r.log != nil {
			r.log.Error("failed to fetch user", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select user: %w", err)
	}

	return &user, nil
}

// AdjustBalance applies an admin balance override. The balance never goes
// negative; a subtract below zero fails instead.
func (r *userRepository) AdjustBalance(ctx context.Context, telegramID int64, op BalanceOp, amount int64) error {
	var query string
	switch op {
	case BalanceAdd:
		query = `UPDATE users SET balance = balance + $2 WHERE telegram_id = $1`
	case BalanceSet:
		query = `UPDATE users SET balance = $2 WHERE telegram_id = $1 AND $2 >= 0`
	case BalanceSubtract:
		query = `UPDATE users SET balance = balance - $2 WHERE telegram_id = $1 AND balance - $2 >= 0`
	default:
		return fmt.Errorf("unknown balance op %q", op)
	}

	result, err := r.db.ExecContext(ctx, query, telegramID, amount)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to adjust balance", slog.Int64("telegram_id", telegramID), slog.String("op", string(op)), slog.Any("error", err))
		}
		return fmt.Errorf("adjust balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust balance rows: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Count returns the total number of known users.
func (r *userRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM users`

	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}

// ListIDs returns every known user id, used by the broadcast dispatcher.
func (r *userRepository) ListIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT telegram_id FROM users ORDER BY telegram_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}

	return ids, nil
}

// TopByBalance lists the wealthiest users for the admin panel.
func (r *userRepository) TopByBalance(ctx context.Context, limit int) ([]domain.User, error) {
	const query = `
		SELECT telegram_id, username, balance, purchased, last_active_at, created_at
		FROM users
		ORDER BY balance DESC
		LIMIT $1
	`

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list top users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.TelegramID,
			&user.Username,
			&user.Balance,
			&user.Purchased,
			&user.LastActiveAt,
			&user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan top user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top users: %w", err)
	}

	return users, nil
}

// ActivityStats aggregates last-activity buckets relative to now. The "new
// today" bucket uses the Dhaka calendar day, matching the store's audience.
func (r *userRepository) ActivityStats(ctx context.Context, now time.Time) (*domain.ActivityStats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE (last_active_at AT TIME ZONE 'Asia/Dhaka')::date = ($1 AT TIME ZONE 'Asia/Dhaka')::date),
			COUNT(*) FILTER (WHERE last_active_at >= $1 - interval '5 minutes'),
			COUNT(*) FILTER (WHERE last_active_at >= $1 - interval '15 minutes'),
			COUNT(*) FILTER (WHERE last_active_at >= $1 - interval '60 minutes')
		FROM users
	`

	var stats domain.ActivityStats
	if err := r.db.QueryRowContext(ctx, query, now).Scan(
		&stats.Total,
		&stats.NewToday,
		&stats.Online,
		&stats.Active15,
		&stats.Active60,
	); err != nil {
		return nil, fmt.Errorf("activity stats: %w", err)
	}

	return &stats, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
)

// StockRepository defines persistence operations for sellable credentials.
type StockRepository interface {
	BulkInsert(ctx context.Context, service string, credentials []string) (int, error)
	CountByService(ctx context.Context, service string) (int, error)
	DeleteService(ctx context.Context, service string) (int64, error)
}

type stockRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewStockRepository creates a new SQL-backed stock repository.
func NewStockRepository(db *sql.DB, log *slog.Logger) StockRepository {
	return &stockRepository{
		db:  db,
		log: log,
	}
}

// BulkInsert appends one stock row per credential line under the given service.
func (r *stockRepository) BulkInsert(ctx context.Context, service string, credentials []string) (int, error) {
	const query = `
		INSERT INTO stock (service, credential)
		SELECT $1, unnest($2::text[])
	`

	if len(credentials) == 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx, query, service, pq.Array(credentials))
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to bulk insert stock", slog.String("service", service), slog.Any("error", err))
		}
		return 0, fmt.Errorf("insert stock: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert stock rows: %w", err)
	}

	return int(inserted), nil
}

// CountByService returns the number of unsold rows for a service.
func (r *stockRepository) CountByService(ctx context.Context, service string) (int, error) {
	const query = `SELECT COUNT(*) FROM stock WHERE service = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, service).Scan(&count); err != nil {
		return 0, fmt.Errorf("count stock: %w", err)
	}

	return count, nil
}

// DeleteService removes every unsold row for a service and reports how many were removed.
func (r *stockRepository) DeleteService(ctx context.Context, service string) (int64, error) {
	const query = `DELETE FROM stock WHERE service = $1`

	result, err := r.db.ExecContext(ctx, query, service)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to delete stock", slog.String("service", service), slog.Any("error", err))
		}
		return 0, fmt.Errorf("delete stock: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete stock rows: %w", err)
	}

	return removed, nil
}

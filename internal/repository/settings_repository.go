package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// Durable settings keys. Transient conversation flags live in the flow
// tracker, not here.
const (
	KeySupportUsername = "support_username"
	KeyTutorialLink    = "tutorial_link"
)

// ErrSettingNotFound indicates that a settings key has never been set.
var ErrSettingNotFound = errors.New("setting not found")

// SettingsRepository is a flat key/value store for mutable configuration.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
}

type settingsRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSettingsRepository creates a new SQL-backed settings repository.
func NewSettingsRepository(db *sql.DB, log *slog.Logger) SettingsRepository {
	return &settingsRepository{
		db:  db,
		log: log,
	}
}

// Get returns the stored value or ErrSettingNotFound.
func (r *settingsRepository) Get(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM settings WHERE key = $1`

	var value string
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSettingNotFound
		}
		return "", fmt.Errorf("select setting: %w", err)
	}

	return value, nil
}

// Put stores or replaces a settings value.
func (r *settingsRepository) Put(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		if r.log != nil {
			r.log.Error("failed to put setting", slog.String("key", key), slog.Any("error", err))
		}
		return fmt.Errorf("upsert setting: %w", err)
	}

	return nil
}

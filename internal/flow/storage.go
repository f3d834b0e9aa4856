package flow

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates that a user has no stored flow record.
var ErrNotFound = errors.New("flow record not found")

// Record holds every open flow for one user.
type Record struct {
	UserID    int64          `json:"user_id"`
	Flows     map[Kind]*Flow `json:"flows"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Storage defines the persistence contract for open flows.
type Storage interface {
	// Get returns the flow record for the specified user.
	Get(ctx context.Context, userID int64) (*Record, error)
	// Set saves the provided record for the specified user.
	Set(ctx context.Context, userID int64, record *Record) error
	// Clear removes the record for the specified user.
	Clear(ctx context.Context, userID int64) error
}

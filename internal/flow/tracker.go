package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"mailstore-bot/internal/domain"
	apperrors "mailstore-bot/internal/errors"
)

var (
	// ErrFlowExists indicates that a flow of the same kind is already open for the user.
	ErrFlowExists = errors.New("flow already open")
	// ErrIncomplete indicates that Complete was called before every field was supplied.
	ErrIncomplete = errors.New("flow has missing fields")
)

// Config carries the field constraints the tracker enforces.
type Config struct {
	// MinDeposit is the smallest accepted deposit amount in minor units.
	MinDeposit int64
}

// Tracker routes free-text input to the correct open flow for its sender.
// At most one flow of each kind may be open per user; input advances the most
// recently begun flow that still has a missing field.
type Tracker struct {
	storage Storage
	cfg     Config
	log     *slog.Logger

	// mu serializes read-modify-write cycles against storage. telebot runs
	// each update on its own goroutine, so two messages from the same user
	// may race here.
	mu sync.Mutex
}

// NewTracker creates a Tracker over the given storage backend.
func NewTracker(storage Storage, cfg Config, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}

	return &Tracker{
		storage: storage,
		cfg:     cfg,
		log:     log,
	}
}

// Begin opens a flow of the given kind with optional pre-filled fields.
// It fails with ErrFlowExists when a flow of that kind is already open;
// an explicit Cancel is required to overwrite.
func (t *Tracker) Begin(ctx context.Context, userID int64, kind Kind, initial map[Field]string) error {
	if _, ok := fieldOrder[kind]; !ok {
		return fmt.Errorf("unknown flow kind %q", kind)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	record, err := t.load(ctx, userID)
	if err != nil {
		return err
	}

	if _, open := record.Flows[kind]; open {
		return ErrFlowExists
	}

	fields := make(map[Field]string, len(initial))
	for field, value := range initial {
		if err := t.validate(kind, field, value); err != nil {
			return err
		}
		fields[field] = value
	}

	record.Flows[kind] = &Flow{
		Kind:      kind,
		Fields:    fields,
		StartedAt: time.Now().UTC(),
	}

	return t.storage.Set(ctx, userID, record)
}

// Advance offers free-text input to the user's open flows. It returns the
// advanced flow and consumed=true when a flow accepted the input, or
// consumed=false when the user has no flow awaiting input so the caller
// should fall through to ordinary command dispatch. A validation failure
// leaves the flow unchanged and is returned for re-prompting.
func (t *Tracker) Advance(ctx context.Context, userID int64, input string) (*Flow, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, err := t.load(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	target := pickOpen(record)
	if target == nil {
		return nil, false, nil
	}

	field, _ := target.Next()
	value := strings.TrimSpace(input)

	if err := t.validate(target.Kind, field, value); err != nil {
		return nil, true, err
	}

	target.Fields[field] = value
	if err := t.storage.Set(ctx, userID, record); err != nil {
		return nil, false, err
	}

	return target, true, nil
}

// Complete returns the filled flow of the given kind and removes it.
// It fails with ErrIncomplete when required fields are still missing and
// ErrNotFound when no such flow is open.
func (t *Tracker) Complete(ctx context.Context, userID int64, kind Kind) (*Flow, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, err := t.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	target, open := record.Flows[kind]
	if !open {
		return nil, ErrNotFound
	}
	if !target.Filled() {
		return nil, ErrIncomplete
	}

	delete(record.Flows, kind)

	if len(record.Flows) == 0 {
		if err := t.storage.Clear(ctx, userID); err != nil {
			return nil, err
		}
		return target, nil
	}

	if err := t.storage.Set(ctx, userID, record); err != nil {
		return nil, err
	}

	return target, nil
}

// Cancel removes every open flow for the user. It is idempotent.
func (t *Tracker) Cancel(ctx context.Context, userID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.storage.Clear(ctx, userID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	return nil
}

func (t *Tracker) load(ctx context.Context, userID int64) (*Record, error) {
	record, err := t.storage.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Record{UserID: userID, Flows: make(map[Kind]*Flow)}, nil
		}
		return nil, err
	}

	if record.Flows == nil {
		record.Flows = make(map[Kind]*Flow)
	}

	return record, nil
}

// pickOpen selects the most recently begun flow that still awaits input.
func pickOpen(record *Record) *Flow {
	var target *Flow
	for _, candidate := range record.Flows {
		if candidate.Filled() {
			continue
		}
		if target == nil || candidate.StartedAt.After(target.StartedAt) {
			target = candidate
		}
	}

	return target
}

func (t *Tracker) validate(kind Kind, field Field, value string) error {
	if value == "" {
		return apperrors.NewValidationError("Input cannot be empty.")
	}

	switch field {
	case FieldAmount:
		amount, err := domain.ParseAmount(value)
		if err != nil {
			return apperrors.NewValidationError("Enter a valid number (e.g., 100).")
		}
		if amount < t.cfg.MinDeposit {
			return apperrors.NewValidationError(fmt.Sprintf("Minimum deposit is %s.", domain.FormatAmount(t.cfg.MinDeposit)))
		}
	case FieldCount:
		count, err := strconv.Atoi(value)
		if err != nil || count < 1 {
			return apperrors.NewValidationError("Enter a valid number.")
		}
	}

	return nil
}

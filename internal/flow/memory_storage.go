package flow

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage keeps open flows in process memory. This is the default
// backend; state does not survive a restart.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[int64]*Record
}

// NewMemoryStorage initializes an in-memory Storage implementation.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[int64]*Record),
	}
}

// Get returns the stored record or ErrNotFound when absent.
func (s *MemoryStorage) Get(ctx context.Context, userID int64) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[userID]
	if !ok {
		return nil, ErrNotFound
	}

	return copyRecord(record), nil
}

// Set saves the provided record for the user.
func (s *MemoryStorage) Set(ctx context.Context, userID int64, record *Record) error {
	stored := copyRecord(record)
	stored.UserID = userID
	stored.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = stored

	return nil
}

// Clear removes the stored record for the given user.
func (s *MemoryStorage) Clear(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)

	return nil
}

// Cleanup removes records untouched for longer than ttl and reports how many
// were reclaimed. Abandoned wizards would otherwise live forever.
func (s *MemoryStorage) Cleanup(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}

	cutoff := time.Now().UTC().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID, record := range s.records {
		if record.UpdatedAt.Before(cutoff) {
			delete(s.records, userID)
			removed++
		}
	}

	return removed
}

// copyRecord clones a record so callers never alias stored state.
func copyRecord(record *Record) *Record {
	cloned := &Record{
		UserID:    record.UserID,
		UpdatedAt: record.UpdatedAt,
		Flows:     make(map[Kind]*Flow, len(record.Flows)),
	}

	for kind, f := range record.Flows {
		fields := make(map[Field]string, len(f.Fields))
		for field, value := range f.Fields {
			fields[field] = value
		}
		cloned.Flows[kind] = &Flow{
			Kind:      f.Kind,
			Fields:    fields,
			StartedAt: f.StartedAt,
		}
	}

	return cloned
}

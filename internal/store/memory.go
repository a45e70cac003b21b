package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/xkilldash9x/guardian/api/schemas"
)

// MemoryStore keeps records in a map. Used in tests and for ephemeral runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]schemas.EvidenceRecord
}

func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[string]schemas.EvidenceRecord)}
}

func (m *MemoryStore) Put(ctx context.Context, rec schemas.EvidenceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[rec.ID]; exists {
		return fmt.Errorf("evidence %s: %w", rec.ID, schemas.ErrEvidenceExists)
	}
	m.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (schemas.EvidenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return schemas.EvidenceRecord{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return schemas.EvidenceRecord{}, fmt.Errorf("evidence %s: %w", id, schemas.ErrNotFound)
	}
	return cloneRecord(rec), nil
}

// Len reports the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// cloneRecord copies the slices held by a record so stored records cannot be
// changed through a caller's reference.
func cloneRecord(rec schemas.EvidenceRecord) schemas.EvidenceRecord {
	rec.Metadata.Signals = append([]schemas.Signal(nil), rec.Metadata.Signals...)
	if rec.Metadata.ArchivedURL != nil {
		archived := *rec.Metadata.ArchivedURL
		rec.Metadata.ArchivedURL = &archived
	}
	return rec
}

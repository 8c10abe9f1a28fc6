package memory

import (
	"context"
	"fmt"
	"sync"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/storage"
)

// AggregateStore is an in-memory implementation of storage.AggregateStore.
type AggregateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AggregateTable // keyed by run_id|dimension
}

// NewAggregateStore creates a new in-memory aggregate store.
func NewAggregateStore() *AggregateStore {
	return &AggregateStore{
		data: make(map[string]*domain.AggregateTable),
	}
}

// aggregateKey generates a unique key for a run's dimension table.
func aggregateKey(runID, dimension string) string {
	return fmt.Sprintf("%s|%s", runID, dimension)
}

// InsertBulk adds a dimension table for a run. Returns ErrDuplicateKey if the
// run already has that dimension, or if a key tuple repeats within the table.
func (s *AggregateStore) InsertBulk(_ context.Context, runID string, table domain.AggregateTable) error {
	if runID == "" || table.Dimension == "" {
		return storage.ErrInvalidInput
	}

	// Intra-batch duplicates
	seen := make(map[string]struct{}, len(table.Rows))
	for i := range table.Rows {
		if len(table.Rows[i].Key) != len(table.KeyNames) {
			return storage.ErrInvalidInput
		}
		k := table.Rows[i].KeyString()
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	key := aggregateKey(runID, table.Dimension)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	tableCopy := cloneTable(table)
	s.data[key] = &tableCopy
	return nil
}

// GetByRun retrieves a dimension table. Returns ErrNotFound if not exists.
func (s *AggregateStore) GetByRun(_ context.Context, runID, dimension string) (*domain.AggregateTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[aggregateKey(runID, dimension)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tableCopy := cloneTable(*t)
	return &tableCopy, nil
}

// cloneTable copies rows and key slices. Column stat maps are treated as
// immutable and shared.
func cloneTable(t domain.AggregateTable) domain.AggregateTable {
	out := domain.AggregateTable{
		Dimension: t.Dimension,
		KeyNames:  append([]string(nil), t.KeyNames...),
		Rows:      make([]domain.CategoryAggregate, len(t.Rows)),
	}
	for i, r := range t.Rows {
		r.KeyNames = append([]string(nil), r.KeyNames...)
		r.Key = append([]string(nil), r.Key...)
		out.Rows[i] = r
	}
	return out
}

var _ storage.AggregateStore = (*AggregateStore)(nil)

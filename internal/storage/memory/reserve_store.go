package memory

import (
	"context"
	"sync"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/storage"
)

// ReserveStore is an in-memory implementation of storage.ReserveStore.
type ReserveStore struct {
	mu       sync.RWMutex
	runs     map[string]*domain.RunInfo
	reserves map[string][]domain.ReserveRequirement
	stress   map[string][]domain.StressResult
}

// NewReserveStore creates a new in-memory reserve store.
func NewReserveStore() *ReserveStore {
	return &ReserveStore{
		runs:     make(map[string]*domain.RunInfo),
		reserves: make(map[string][]domain.ReserveRequirement),
		stress:   make(map[string][]domain.StressResult),
	}
}

// InsertRun registers a run. Returns ErrDuplicateKey if run_id exists.
func (s *ReserveStore) InsertRun(_ context.Context, run *domain.RunInfo) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	runCopy := *run
	s.runs[run.RunID] = &runCopy
	return nil
}

// GetRun retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *ReserveStore) GetRun(_ context.Context, runID string) (*domain.RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.runs[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	runCopy := *r
	return &runCopy, nil
}

// InsertReserves adds the requirements of a run atomically.
func (s *ReserveStore) InsertReserves(_ context.Context, runID string, reqs []domain.ReserveRequirement) error {
	if len(reqs) == 0 {
		return nil
	}

	seen := make(map[domain.RiskCategory]struct{}, len(reqs))
	for _, r := range reqs {
		if r.Category.Rank() < 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[r.Category]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.Category] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[runID]; !exists {
		return storage.ErrNotFound
	}
	if _, exists := s.reserves[runID]; exists {
		return storage.ErrDuplicateKey
	}

	s.reserves[runID] = append([]domain.ReserveRequirement(nil), reqs...)
	return nil
}

// InsertStressResults adds the scenario results of a run atomically.
func (s *ReserveStore) InsertStressResults(_ context.Context, runID string, results []domain.StressResult) error {
	if len(results) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if r.Scenario.Name == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[r.Scenario.Name]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.Scenario.Name] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[runID]; !exists {
		return storage.ErrNotFound
	}
	if _, exists := s.stress[runID]; exists {
		return storage.ErrDuplicateKey
	}

	s.stress[runID] = append([]domain.StressResult(nil), results...)
	return nil
}

// GetReserves retrieves the requirements of a run, or an empty slice.
func (s *ReserveStore) GetReserves(_ context.Context, runID string) ([]domain.ReserveRequirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.ReserveRequirement(nil), s.reserves[runID]...), nil
}

// GetStressResults retrieves the scenario results of a run, or an empty slice.
func (s *ReserveStore) GetStressResults(_ context.Context, runID string) ([]domain.StressResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.StressResult(nil), s.stress[runID]...), nil
}

var _ storage.ReserveStore = (*ReserveStore)(nil)

package memory

import (
	"context"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/storage"
)

// PolicySource serves a fixed, already-clean policy table.
type PolicySource struct {
	name    string
	records []domain.PolicyRecord
}

// NewPolicySource creates a source over a copy of records.
func NewPolicySource(name string, records []domain.PolicyRecord) *PolicySource {
	return &PolicySource{
		name:    name,
		records: append([]domain.PolicyRecord(nil), records...),
	}
}

// Load returns a copy of the records. Nothing is imputed.
func (s *PolicySource) Load(_ context.Context) ([]domain.PolicyRecord, *domain.LoadStats, error) {
	stats := &domain.LoadStats{
		Rows:    len(s.records),
		Imputed: map[string]int{},
	}
	for i := range s.records {
		if s.records[i].PremiumAmount <= 0 {
			stats.NonPositivePremium++
		}
	}
	return append([]domain.PolicyRecord(nil), s.records...), stats, nil
}

// Name returns the source name.
func (s *PolicySource) Name() string {
	return s.name
}

var _ storage.PolicySource = (*PolicySource)(nil)

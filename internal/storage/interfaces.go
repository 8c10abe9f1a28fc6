package storage

import (
	"context"

	"policy-reserve-lab/internal/domain"
)

// PolicySource provides the policy table a run starts from.
type PolicySource interface {
	// Load returns every policy in source order, imputation already applied.
	// Returns ErrInvalidInput wrapped with details when the source is malformed.
	Load(ctx context.Context) ([]domain.PolicyRecord, *domain.LoadStats, error)

	// Name describes the source for logs and reports.
	Name() string
}

// AggregateStore provides access to category_aggregates storage.
type AggregateStore interface {
	// InsertBulk adds every row of one dimension table for a run atomically.
	// Returns ErrDuplicateKey if (run_id, dimension) already has rows.
	InsertBulk(ctx context.Context, runID string, table domain.AggregateTable) error

	// GetByRun retrieves a dimension table of a run, rows in their original order.
	// Returns ErrNotFound if the run has no rows for the dimension.
	GetByRun(ctx context.Context, runID, dimension string) (*domain.AggregateTable, error)
}

// ReserveStore provides access to reserve run results.
type ReserveStore interface {
	// InsertRun registers a run. Returns ErrDuplicateKey if run_id exists.
	InsertRun(ctx context.Context, run *domain.RunInfo) error

	// GetRun retrieves a run by ID. Returns ErrNotFound if not exists.
	GetRun(ctx context.Context, runID string) (*domain.RunInfo, error)

	// InsertReserves adds the per-category requirements of a run atomically.
	// Returns ErrNotFound if the run is unknown, ErrDuplicateKey if a category repeats.
	InsertReserves(ctx context.Context, runID string, reqs []domain.ReserveRequirement) error

	// InsertStressResults adds the scenario results of a run atomically.
	// Returns ErrNotFound if the run is unknown, ErrDuplicateKey if a scenario repeats.
	InsertStressResults(ctx context.Context, runID string, results []domain.StressResult) error

	// GetReserves retrieves the requirements of a run ordered by category severity.
	GetReserves(ctx context.Context, runID string) ([]domain.ReserveRequirement, error)

	// GetStressResults retrieves the scenario results of a run in catalog order.
	GetStressResults(ctx context.Context, runID string) ([]domain.StressResult, error)
}

// ArtifactStore receives finished output files.
type ArtifactStore interface {
	// Put uploads one file under name.
	Put(ctx context.Context, name string, data []byte, contentType string) error
}

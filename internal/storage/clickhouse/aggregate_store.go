package clickhouse

import (
	"context"
	"fmt"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/storage"
)

// AggregateStore implements storage.AggregateStore using ClickHouse.
type AggregateStore struct {
	conn *Conn
}

// NewAggregateStore creates a new AggregateStore.
func NewAggregateStore(conn *Conn) *AggregateStore {
	return &AggregateStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AggregateStore = (*AggregateStore)(nil)

// InsertBulk adds every row of a dimension table atomically.
// Fails entire batch if the run already has the dimension or a key repeats.
func (s *AggregateStore) InsertBulk(ctx context.Context, runID string, table domain.AggregateTable) error {
	if runID == "" || table.Dimension == "" {
		return storage.ErrInvalidInput
	}
	if len(table.Rows) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(table.Rows))
	for i := range table.Rows {
		if len(table.Rows[i].Key) != len(table.KeyNames) {
			return storage.ErrInvalidInput
		}
		key := table.Rows[i].KeyString()
		if _, exists := seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
	}

	// ReplacingMergeTree would replace, but we want append-only semantics
	exists, err := s.exists(ctx, runID, table.Dimension)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO category_aggregates (
			run_id, dimension, row_index,
			key_names, key_values, policy_count,
			stat_columns, stat_sum, stat_mean, stat_median, stat_min, stat_max, stat_stddev,
			pooled_loss_ratio
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i := range table.Rows {
		a := &table.Rows[i]
		st := flattenStats(a)
		err = batch.Append(
			runID, table.Dimension, uint32(i),
			table.KeyNames, a.Key, uint32(a.PolicyCount),
			st.columns, st.sum, st.mean, st.median, st.min, st.max, st.stddev,
			a.PooledLossRatio,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRun retrieves a dimension table of a run, rows in insertion order.
func (s *AggregateStore) GetByRun(ctx context.Context, runID, dimension string) (*domain.AggregateTable, error) {
	query := `
		SELECT
			key_names, key_values, policy_count,
			stat_columns, stat_sum, stat_mean, stat_median, stat_min, stat_max, stat_stddev,
			pooled_loss_ratio
		FROM category_aggregates FINAL
		WHERE run_id = ? AND dimension = ?
		ORDER BY row_index ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, dimension)
	if err != nil {
		return nil, fmt.Errorf("query by run: %w", err)
	}
	defer rows.Close()

	table := &domain.AggregateTable{Dimension: dimension}
	for rows.Next() {
		var (
			a     domain.CategoryAggregate
			count uint32
			st    flatStats
		)
		err := rows.Scan(
			&table.KeyNames, &a.Key, &count,
			&st.columns, &st.sum, &st.mean, &st.median, &st.min, &st.max, &st.stddev,
			&a.PooledLossRatio,
		)
		if err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		a.Dimension = dimension
		a.KeyNames = table.KeyNames
		a.PolicyCount = int(count)
		a.Columns = st.unflatten()
		table.Rows = append(table.Rows, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate rows: %w", err)
	}
	if len(table.Rows) == 0 {
		return nil, storage.ErrNotFound
	}

	return table, nil
}

// exists checks if a run already has rows for the dimension.
func (s *AggregateStore) exists(ctx context.Context, runID, dimension string) (bool, error) {
	query := `
		SELECT count(*) FROM category_aggregates FINAL
		WHERE run_id = ? AND dimension = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, runID, dimension).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// flatStats holds column stats as parallel arrays in AggregatedColumns order.
type flatStats struct {
	columns []string
	sum     []float64
	mean    []float64
	median  []float64
	min     []float64
	max     []float64
	stddev  []*float64
}

func flattenStats(a *domain.CategoryAggregate) flatStats {
	var st flatStats
	for _, c := range domain.AggregatedColumns {
		cs, ok := a.Columns[c]
		if !ok {
			continue
		}
		st.columns = append(st.columns, string(c))
		st.sum = append(st.sum, cs.Sum)
		st.mean = append(st.mean, cs.Mean)
		st.median = append(st.median, cs.Median)
		st.min = append(st.min, cs.Min)
		st.max = append(st.max, cs.Max)
		st.stddev = append(st.stddev, cs.Stddev)
	}
	return st
}

func (st flatStats) unflatten() map[domain.Column]domain.ColumnStats {
	out := make(map[domain.Column]domain.ColumnStats, len(st.columns))
	for i, c := range st.columns {
		out[domain.Column(c)] = domain.ColumnStats{
			Sum:    st.sum[i],
			Mean:   st.mean[i],
			Median: st.median[i],
			Min:    st.min[i],
			Max:    st.max[i],
			Stddev: st.stddev[i],
		}
	}
	return out
}

package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/money"
	"policy-reserve-lab/internal/storage"
)

// ReserveStore implements storage.ReserveStore using PostgreSQL.
type ReserveStore struct {
	pool *Pool
}

// NewReserveStore creates a new ReserveStore.
func NewReserveStore(pool *Pool) *ReserveStore {
	return &ReserveStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ReserveStore = (*ReserveStore)(nil)

// parseRunID converts a run id to the UUID column type.
func parseRunID(runID string) (uuid.UUID, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: run id %q: %v", storage.ErrInvalidInput, runID, err)
	}
	return id, nil
}

// InsertRun registers a run. Returns ErrDuplicateKey if run_id exists.
func (s *ReserveStore) InsertRun(ctx context.Context, run *domain.RunInfo) error {
	if run == nil {
		return storage.ErrInvalidInput
	}
	id, err := parseRunID(run.RunID)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert("reserve_runs").
		Columns("run_id", "data_version", "source", "as_of", "policy_count").
		Values(id, run.DataVersion, run.Source, run.AsOf.UTC(), run.PolicyCount).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *ReserveStore) GetRun(ctx context.Context, runID string) (*domain.RunInfo, error) {
	id, err := parseRunID(runID)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Select("data_version", "source", "as_of", "policy_count").
		From("reserve_runs").
		Where(sq.Eq{"run_id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build run query: %w", err)
	}

	run := domain.RunInfo{RunID: id.String()}
	var asOf time.Time
	err = s.pool.QueryRow(ctx, query, args...).Scan(&run.DataVersion, &run.Source, &asOf, &run.PolicyCount)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.AsOf = asOf.UTC()
	return &run, nil
}

var reserveColumns = []string{
	"category", "policy_count",
	"total_premiums", "avg_premium", "total_claims", "avg_loss_ratio", "avg_duration",
	"premium_based", "claims_based", "risk_adjusted", "ibnr",
	"total_required", "binding_method", "actual_exposure", "adequacy", "reserve_ratio",
}

// InsertReserves adds the per-category requirements of a run atomically.
// Returns ErrNotFound if the run is unknown, ErrDuplicateKey if a category repeats.
func (s *ReserveStore) InsertReserves(ctx context.Context, runID string, reqs []domain.ReserveRequirement) error {
	if len(reqs) == 0 {
		return nil
	}
	id, err := parseRunID(runID)
	if err != nil {
		return err
	}

	q := psql.Insert("reserve_requirements").Columns(append([]string{"run_id"}, reserveColumns...)...)
	for _, r := range reqs {
		if r.Category.Rank() < 0 {
			return fmt.Errorf("%w: unknown category %q", storage.ErrInvalidInput, r.Category)
		}
		q = q.Values(
			id, string(r.Category), r.PolicyCount,
			money.Round(r.TotalPremiums), money.Round(r.AvgPremium), r.TotalClaims, r.AvgLossRatio, r.AvgDuration,
			money.Round(r.PremiumBased), money.Round(r.ClaimsBased), money.Round(r.RiskAdjusted), money.Round(r.IBNR),
			money.Round(r.TotalRequired), string(r.BindingMethod), money.Round(r.ActualExposure), money.Round(r.Adequacy),
			r.ReserveRatio.Ptr(),
		)
	}

	return s.execInsert(ctx, q, "reserves")
}

var stressColumns = []string{
	"scenario", "claims_multiplier", "premium_multiplier", "description",
	"stressed_premiums", "stressed_claims", "stressed_loss_ratio",
	"required_reserves", "actual_exposure", "capital_adequacy", "capital_ratio", "status",
}

// InsertStressResults adds the scenario results of a run atomically.
// The catalog position is stored so reads return catalog order.
func (s *ReserveStore) InsertStressResults(ctx context.Context, runID string, results []domain.StressResult) error {
	if len(results) == 0 {
		return nil
	}
	id, err := parseRunID(runID)
	if err != nil {
		return err
	}

	q := psql.Insert("stress_results").Columns(append([]string{"run_id", "position"}, stressColumns...)...)
	for i, r := range results {
		if r.Scenario.Name == "" {
			return storage.ErrInvalidInput
		}
		q = q.Values(
			id, i,
			r.Scenario.Name, r.Scenario.ClaimsMultiplier, r.Scenario.PremiumMultiplier, r.Scenario.Description,
			money.Round(r.StressedPremiums), r.StressedClaims, r.StressedLossRatio.Ptr(),
			money.Round(r.RequiredReserves), money.Round(r.ActualExposure), money.Round(r.CapitalAdequacy),
			r.CapitalRatio.Ptr(), string(r.Status),
		)
	}

	return s.execInsert(ctx, q, "stress results")
}

// execInsert runs a multi-row insert in one statement, mapping constraint errors.
func (s *ReserveStore) execInsert(ctx context.Context, q sq.InsertBuilder, what string) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build %s insert: %w", what, err)
	}

	return s.pool.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			if isMissingParentError(err) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("insert %s: %w", what, err)
		}
		return nil
	})
}

// GetReserves retrieves the requirements of a run ordered by category severity.
func (s *ReserveStore) GetReserves(ctx context.Context, runID string) ([]domain.ReserveRequirement, error) {
	id, err := parseRunID(runID)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Select(reserveColumns...).
		From("reserve_requirements").
		Where(sq.Eq{"run_id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reserves query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reserves: %w", err)
	}
	defer rows.Close()

	var out []domain.ReserveRequirement
	for rows.Next() {
		r, err := scanReserve(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reserves: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Category.Rank() < out[j].Category.Rank()
	})
	return out, nil
}

func scanReserve(rows pgx.Rows) (domain.ReserveRequirement, error) {
	var (
		r                                             domain.ReserveRequirement
		category, method                              string
		totalPremiums, avgPremium                     decimal.Decimal
		premiumBased, claimsBased, riskAdjusted, ibnr decimal.Decimal
		totalRequired, exposure, adequacy             decimal.Decimal
		ratio                                         *float64
	)
	if err := rows.Scan(
		&category, &r.PolicyCount,
		&totalPremiums, &avgPremium, &r.TotalClaims, &r.AvgLossRatio, &r.AvgDuration,
		&premiumBased, &claimsBased, &riskAdjusted, &ibnr,
		&totalRequired, &method, &exposure, &adequacy, &ratio,
	); err != nil {
		return r, fmt.Errorf("scan reserve: %w", err)
	}

	r.Category = domain.RiskCategory(category)
	r.BindingMethod = domain.ReserveMethod(method)
	r.TotalPremiums = totalPremiums.InexactFloat64()
	r.AvgPremium = avgPremium.InexactFloat64()
	r.PremiumBased = premiumBased.InexactFloat64()
	r.ClaimsBased = claimsBased.InexactFloat64()
	r.RiskAdjusted = riskAdjusted.InexactFloat64()
	r.IBNR = ibnr.InexactFloat64()
	r.TotalRequired = totalRequired.InexactFloat64()
	r.ActualExposure = exposure.InexactFloat64()
	r.Adequacy = adequacy.InexactFloat64()
	r.ReserveRatio = ratioFromPtr(ratio)
	return r, nil
}

// GetStressResults retrieves the scenario results of a run in catalog order.
func (s *ReserveStore) GetStressResults(ctx context.Context, runID string) ([]domain.StressResult, error) {
	id, err := parseRunID(runID)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Select(stressColumns...).
		From("stress_results").
		Where(sq.Eq{"run_id": id}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stress query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stress results: %w", err)
	}
	defer rows.Close()

	var out []domain.StressResult
	for rows.Next() {
		var (
			r                                  domain.StressResult
			status                             string
			premiums, required, exposure, adeq decimal.Decimal
			lossRatio, capitalRatio            *float64
		)
		if err := rows.Scan(
			&r.Scenario.Name, &r.Scenario.ClaimsMultiplier, &r.Scenario.PremiumMultiplier, &r.Scenario.Description,
			&premiums, &r.StressedClaims, &lossRatio,
			&required, &exposure, &adeq, &capitalRatio, &status,
		); err != nil {
			return nil, fmt.Errorf("scan stress result: %w", err)
		}
		r.StressedPremiums = premiums.InexactFloat64()
		r.RequiredReserves = required.InexactFloat64()
		r.ActualExposure = exposure.InexactFloat64()
		r.CapitalAdequacy = adeq.InexactFloat64()
		r.StressedLossRatio = ratioFromPtr(lossRatio)
		r.CapitalRatio = ratioFromPtr(capitalRatio)
		r.Status = domain.AdequacyStatus(status)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stress results: %w", err)
	}
	return out, nil
}

func ratioFromPtr(v *float64) domain.Ratio {
	if v == nil {
		return domain.Ratio{}
	}
	return domain.Ratio{Value: *v, Defined: true}
}

package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/ingest"
	"policy-reserve-lab/internal/money"
	"policy-reserve-lab/internal/storage"
)

// insertBatchSize bounds the rows per multi-row INSERT.
const insertBatchSize = 500

var policyColumns = []string{
	"policy_id",
	"age", "annual_income", "number_of_dependents", "health_score", "previous_claims", "credit_score",
	"gender", "marital_status", "occupation", "education_level", "smoking_status", "exercise_frequency",
	"policy_type", "location", "customer_feedback",
	"premium_amount", "insurance_duration", "policy_start_date",
}

// PolicyFilter narrows the loaded policies. Empty slices match everything.
type PolicyFilter struct {
	PolicyTypes []string
	Locations   []string
}

// PolicyStore implements storage.PolicySource over the policies table.
type PolicyStore struct {
	pool   *Pool
	filter PolicyFilter
}

// NewPolicyStore creates a new PolicyStore.
func NewPolicyStore(pool *Pool) *PolicyStore {
	return &PolicyStore{pool: pool}
}

// WithFilter sets the load filter.
func (s *PolicyStore) WithFilter(f PolicyFilter) *PolicyStore {
	s.filter = f
	return s
}

// Compile-time interface check.
var _ storage.PolicySource = (*PolicyStore)(nil)

// Name describes the table and active filter.
func (s *PolicyStore) Name() string {
	var parts []string
	if len(s.filter.PolicyTypes) > 0 {
		parts = append(parts, "policy_type in ("+strings.Join(s.filter.PolicyTypes, ",")+")")
	}
	if len(s.filter.Locations) > 0 {
		parts = append(parts, "location in ("+strings.Join(s.filter.Locations, ",")+")")
	}
	if len(parts) == 0 {
		return "postgres:policies"
	}
	return "postgres:policies where " + strings.Join(parts, " and ")
}

// Load reads matching policies ordered by policy_id and imputes NULL cells.
func (s *PolicyStore) Load(ctx context.Context) ([]domain.PolicyRecord, *domain.LoadStats, error) {
	q := psql.Select(policyColumns...).From("policies").OrderBy("policy_id")
	if len(s.filter.PolicyTypes) > 0 {
		q = q.Where(sq.Eq{"policy_type": s.filter.PolicyTypes})
	}
	if len(s.filter.Locations) > 0 {
		q = q.Where(sq.Eq{"location": s.filter.Locations})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build policy query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query policies: %w", err)
	}
	defer rows.Close()

	var raws []ingest.RawPolicy
	for rows.Next() {
		var (
			r       ingest.RawPolicy
			premium decimal.NullDecimal
			start   *time.Time
		)
		if err := rows.Scan(
			&r.PolicyID,
			&r.Age, &r.AnnualIncome, &r.NumberOfDependents, &r.HealthScore, &r.PreviousClaims, &r.CreditScore,
			&r.Gender, &r.MaritalStatus, &r.Occupation, &r.EducationLevel, &r.SmokingStatus, &r.ExerciseFrequency,
			&r.PolicyType, &r.Location, &r.CustomerFeedback,
			&premium, &r.InsuranceDuration, &start,
		); err != nil {
			return nil, nil, fmt.Errorf("scan policy: %w", err)
		}
		if premium.Valid {
			v := premium.Decimal.InexactFloat64()
			r.PremiumAmount = &v
		}
		if start != nil {
			r.StartDate = start.UTC()
		}
		raws = append(raws, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate policies: %w", err)
	}

	records, stats := ingest.Impute(raws)
	return records, stats, nil
}

// InsertBulk adds policies atomically. Fails entire batch on any duplicate policy_id.
func (s *PolicyStore) InsertBulk(ctx context.Context, records []domain.PolicyRecord) error {
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		if records[i].PolicyID == "" {
			return fmt.Errorf("%w: policy at index %d has no id", storage.ErrInvalidInput, i)
		}
	}

	return s.pool.inTx(ctx, func(tx pgx.Tx) error {
		for start := 0; start < len(records); start += insertBatchSize {
			end := min(start+insertBatchSize, len(records))
			query, args, err := policyInsert(records[start:end]).ToSql()
			if err != nil {
				return fmt.Errorf("build policy insert: %w", err)
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				if isDuplicateKeyError(err) {
					return storage.ErrDuplicateKey
				}
				return fmt.Errorf("insert policies: %w", err)
			}
		}
		return nil
	})
}

func policyInsert(records []domain.PolicyRecord) sq.InsertBuilder {
	q := psql.Insert("policies").Columns(policyColumns...)
	for i := range records {
		p := &records[i]
		var startDate *time.Time
		if p.HasStartDate() {
			d := p.StartDate
			startDate = &d
		}
		q = q.Values(
			p.PolicyID,
			p.Age, p.AnnualIncome, p.NumberOfDependents, p.HealthScore, p.PreviousClaims, p.CreditScore,
			p.Gender, p.MaritalStatus, p.Occupation, p.EducationLevel, p.SmokingStatus, p.ExerciseFrequency,
			p.PolicyType, p.Location, p.CustomerFeedback,
			money.Round(p.PremiumAmount), p.InsuranceDuration, startDate,
		)
	}
	return q
}

package reserve

import (
	"errors"
	"math"
	"testing"

	"policy-reserve-lab/internal/domain"
)

// Helper to create a risk-category aggregate with premium and claim totals.
func makeAggregate(category string, count int, premiums, claims float64) domain.CategoryAggregate {
	return domain.CategoryAggregate{
		Dimension:   "risk_category",
		KeyNames:    []string{"risk_category"},
		Key:         []string{category},
		PolicyCount: count,
		Columns: map[domain.Column]domain.ColumnStats{
			domain.ColumnPremium:   {Sum: premiums, Mean: premiums / float64(count)},
			domain.ColumnClaims:    {Sum: claims, Mean: claims / float64(count)},
			domain.ColumnLossRatio: {Mean: 0.4},
			domain.ColumnDuration:  {Mean: 2.5},
		},
	}
}

func TestComputeCategory_ClaimsDominates(t *testing.T) {
	agg := makeAggregate("Low", 100, 100000, 40)
	r := NewEngine().ComputeCategory(domain.RiskLow, &agg)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"premium_based", r.PremiumBased, 15000},
		{"claims_based", r.ClaimsBased, 120000},
		{"risk_adjusted", r.RiskAdjusted, 10000},
		{"ibnr", r.IBNR, 5000},
		{"total_required", r.TotalRequired, 120000},
		{"actual_exposure", r.ActualExposure, 40000},
		{"adequacy", r.Adequacy, 80000},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-6 {
			t.Errorf("%s: expected %f, got %f", c.name, c.want, c.got)
		}
	}
	if !r.ReserveRatio.Defined || math.Abs(r.ReserveRatio.Value-3.0) > 1e-12 {
		t.Errorf("expected reserve ratio 3.0, got %s", r.ReserveRatio)
	}
	if r.BindingMethod != domain.MethodClaimsBased {
		t.Errorf("expected claims_based binding, got %s", r.BindingMethod)
	}
}

func TestComputeCategory_RiskAdjustedDominates(t *testing.T) {
	agg := makeAggregate("Very High", 10, 100000, 1)
	r := NewEngine().ComputeCategory(domain.RiskVeryHigh, &agg)

	// 35% of premiums beats 15%, 5% and 3 * 1000
	if math.Abs(r.TotalRequired-35000) > 1e-6 {
		t.Errorf("expected 35000, got %f", r.TotalRequired)
	}
	if r.BindingMethod != domain.MethodRiskAdjusted {
		t.Errorf("expected risk_adjusted binding, got %s", r.BindingMethod)
	}
}

func TestComputeCategory_TieGoesToEarlierMethod(t *testing.T) {
	// Medium multiplier equals the premium-based rate.
	agg := makeAggregate("Medium", 5, 10000, 0)
	r := NewEngine().ComputeCategory(domain.RiskMedium, &agg)

	if r.BindingMethod != domain.MethodPremiumBased {
		t.Errorf("expected premium_based on tie, got %s", r.BindingMethod)
	}
}

func TestComputeCategory_NoExposure(t *testing.T) {
	agg := makeAggregate("Low", 3, 3000, 0)
	r := NewEngine().ComputeCategory(domain.RiskLow, &agg)

	if r.ReserveRatio.Defined {
		t.Errorf("expected undefined ratio, got %s", r.ReserveRatio)
	}
	if r.ReserveRatio.String() != "n/a" {
		t.Errorf("expected n/a, got %s", r.ReserveRatio)
	}
	if r.Adequacy != r.TotalRequired {
		t.Errorf("expected adequacy to equal required with no exposure")
	}
}

func TestCompute_RequiredIsMax(t *testing.T) {
	aggs := []domain.CategoryAggregate{
		makeAggregate("Low", 10, 12000, 2),
		makeAggregate("Medium", 8, 9000, 5),
		makeAggregate("High", 4, 50000, 1),
		makeAggregate("Very High", 2, 7000, 6),
	}
	reqs, err := NewEngine().Compute(aggs)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	for _, r := range reqs {
		for _, c := range []float64{r.PremiumBased, r.ClaimsBased, r.RiskAdjusted, r.IBNR} {
			if r.TotalRequired < c {
				t.Errorf("%s: required %f below component %f", r.Category, r.TotalRequired, c)
			}
		}
	}
}

func TestCompute_OrdersBySeverityAndOmitsAbsent(t *testing.T) {
	aggs := []domain.CategoryAggregate{
		makeAggregate("Very High", 2, 7000, 6),
		makeAggregate("Low", 10, 12000, 2),
	}
	reqs, err := NewEngine().Compute(aggs)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(reqs))
	}
	if reqs[0].Category != domain.RiskLow || reqs[1].Category != domain.RiskVeryHigh {
		t.Errorf("unexpected order %s, %s", reqs[0].Category, reqs[1].Category)
	}
}

func TestCompute_UnknownCategory(t *testing.T) {
	aggs := []domain.CategoryAggregate{makeAggregate("Extreme", 1, 100, 1)}
	_, err := NewEngine().Compute(aggs)
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestCompute_WrongDimension(t *testing.T) {
	agg := makeAggregate("Low", 1, 100, 1)
	agg.Key = []string{"Basic", "Low"}
	_, err := NewEngine().Compute([]domain.CategoryAggregate{agg})
	if !errors.Is(err, ErrNotRiskDimension) {
		t.Errorf("expected ErrNotRiskDimension, got %v", err)
	}
}

func TestCapitalAdequacy(t *testing.T) {
	aggs := []domain.CategoryAggregate{
		makeAggregate("Low", 100, 100000, 40),
		makeAggregate("High", 10, 20000, 10),
	}
	reqs, err := NewEngine().Compute(aggs)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	ca := CapitalAdequacy(reqs)

	// High: claims_based 30000, exposure 10000
	if math.Abs(ca.TotalRequired-150000) > 1e-6 {
		t.Errorf("expected required 150000, got %f", ca.TotalRequired)
	}
	if math.Abs(ca.TotalExposure-50000) > 1e-6 {
		t.Errorf("expected exposure 50000, got %f", ca.TotalExposure)
	}
	if math.Abs(ca.OverallAdequacy-100000) > 1e-6 {
		t.Errorf("expected adequacy 100000, got %f", ca.OverallAdequacy)
	}
	if math.Abs(ca.ReserveCoverageRatio.Value-3.0) > 1e-12 {
		t.Errorf("expected coverage 3.0, got %s", ca.ReserveCoverageRatio)
	}
	// 150000 required over 120000 premiums
	if math.Abs(ca.PremiumCoverageRatio.Value-1.25) > 1e-12 {
		t.Errorf("expected premium coverage 1.25, got %s", ca.PremiumCoverageRatio)
	}
}

func TestCapitalAdequacy_NoExposure(t *testing.T) {
	aggs := []domain.CategoryAggregate{makeAggregate("Low", 2, 1000, 0)}
	reqs, _ := NewEngine().Compute(aggs)
	ca := CapitalAdequacy(reqs)

	if ca.ReserveCoverageRatio.Defined {
		t.Error("expected undefined reserve coverage with no exposure")
	}
	// Premiums exist, so premium coverage is still defined.
	if !ca.PremiumCoverageRatio.Defined {
		t.Fatal("expected defined premium coverage with premiums > 0")
	}
	want := ca.TotalRequired / 1000
	if math.Abs(ca.PremiumCoverageRatio.Value-want) > 1e-12 {
		t.Errorf("expected premium coverage %f, got %s", want, ca.PremiumCoverageRatio)
	}
	if !math.IsInf(ca.ReserveCoverageRatio.Float(), 1) {
		t.Error("expected undefined ratio to compare as +Inf")
	}
}

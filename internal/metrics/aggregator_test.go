package metrics

import (
	"math"
	"testing"
	"time"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/risk"
)

var testAsOf = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

// Helper to create an enriched policy with the fields grouping depends on.
func makePolicy(id, policyType, location string, age, premium, claims float64, smoker bool, start time.Time) domain.EnrichedPolicy {
	smoking := domain.SmokerNo
	if smoker {
		smoking = domain.SmokerYes
	}
	rec := domain.PolicyRecord{
		PolicyID:          id,
		Age:               age,
		AnnualIncome:      50000,
		HealthScore:       50,
		CreditScore:       700,
		PreviousClaims:    claims,
		Gender:            "Female",
		SmokingStatus:     smoking,
		ExerciseFrequency: "Weekly",
		PolicyType:        policyType,
		Location:          location,
		PremiumAmount:     premium,
		InsuranceDuration: 2,
		StartDate:         start,
	}
	return risk.NewEnricher(testAsOf).Enrich(&rec)
}

func samplePortfolio() []domain.EnrichedPolicy {
	jan := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2023, 2, 15, 0, 0, 0, 0, time.UTC)
	return []domain.EnrichedPolicy{
		makePolicy("p1", "Basic", "Urban", 40, 1000, 0, false, jan),          // Low
		makePolicy("p2", "Premium", "Rural", 40, 2000, 1, false, feb),        // Low
		makePolicy("p3", "Basic", "Suburban", 22, 1500, 3, true, jan),        // 2+3+2 = Very High
		makePolicy("p4", "Premium", "Urban", 30, 500, 1, false, time.Time{}), // 1+1 = Low
		makePolicy("p5", "Basic", "Urban", 70, 800, 3, false, feb),           // 2+3 = High
	}
}

func TestGroupBy_RiskCategoryCounts(t *testing.T) {
	policies := samplePortfolio()
	dim, _ := DimensionByName(DimRiskCategory)

	table := GroupBy(policies, dim)

	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 groups (no zero-filled Medium), got %d", len(table.Rows))
	}
	wantOrder := []string{"Low", "High", "Very High"}
	for i, want := range wantOrder {
		if table.Rows[i].Key[0] != want {
			t.Errorf("row %d: expected %s, got %s", i, want, table.Rows[i].Key[0])
		}
	}

	low := table.Rows[0]
	if low.PolicyCount != 3 {
		t.Errorf("expected 3 Low policies, got %d", low.PolicyCount)
	}
	if low.TotalPremiums() != 3500 {
		t.Errorf("expected Low premiums 3500, got %f", low.TotalPremiums())
	}
	if low.TotalClaims() != 2 {
		t.Errorf("expected Low claims 2, got %f", low.TotalClaims())
	}
}

func TestGroupBy_TotalsConsistent(t *testing.T) {
	policies := samplePortfolio()
	totals := Totals(policies)

	for _, dim := range []string{DimRiskCategory, DimPolicyType, DimLocation, DimPolicySummary} {
		d, ok := DimensionByName(dim)
		if !ok {
			t.Fatalf("dimension %s not found", dim)
		}
		table := GroupBy(policies, d)

		if table.PolicyCount() != len(policies) {
			t.Errorf("%s: expected %d policies, got %d", dim, len(policies), table.PolicyCount())
		}
		sum := 0.0
		for i := range table.Rows {
			sum += table.Rows[i].TotalPremiums()
		}
		if math.Abs(sum-totals.TotalPremiums) > 1e-9 {
			t.Errorf("%s: premium sum %f != portfolio %f", dim, sum, totals.TotalPremiums)
		}
	}
}

func TestGroupBy_MissingKeyExcluded(t *testing.T) {
	policies := samplePortfolio()
	dim, _ := DimensionByName(DimMonthlyTrends)

	table := GroupBy(policies, dim)

	// p4 has no start date
	if table.PolicyCount() != 4 {
		t.Errorf("expected 4 dated policies, got %d", table.PolicyCount())
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 months, got %d", len(table.Rows))
	}
	if table.Rows[0].Key[1] != "1" || table.Rows[1].Key[1] != "2" {
		t.Errorf("unexpected month order %v, %v", table.Rows[0].Key, table.Rows[1].Key)
	}
}

func TestGroupBy_MultiKeyOrder(t *testing.T) {
	policies := samplePortfolio()
	dim, _ := DimensionByName(DimPolicySummary)

	table := GroupBy(policies, dim)

	var got []string
	for i := range table.Rows {
		got = append(got, table.Rows[i].KeyString())
	}
	want := []string{
		"Basic | Low",
		"Basic | High",
		"Basic | Very High",
		"Premium | Low",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestGroupBy_SingleMemberHasNoStddev(t *testing.T) {
	policies := samplePortfolio()
	dim, _ := DimensionByName(DimRiskCategory)

	table := GroupBy(policies, dim)
	high := table.Rows[1]
	if high.PolicyCount != 1 {
		t.Fatalf("expected single High policy, got %d", high.PolicyCount)
	}
	if high.Stats(domain.ColumnPremium).Stddev != nil {
		t.Error("expected nil stddev for n=1")
	}
	low := table.Rows[0]
	if low.Stats(domain.ColumnPremium).Stddev == nil {
		t.Error("expected stddev for n=3")
	}
}

func TestGroupBy_PooledLossRatio(t *testing.T) {
	policies := samplePortfolio()
	dim, _ := DimensionByName(DimRiskCategory)

	low := GroupBy(policies, dim).Rows[0]
	// 2 claims * 1000 / 3500
	want := 2000.0 / 3500.0
	if math.Abs(low.PooledLossRatio-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, low.PooledLossRatio)
	}
}

func TestGroupBy_Empty(t *testing.T) {
	dim, _ := DimensionByName(DimRiskCategory)
	table := GroupBy(nil, dim)
	if len(table.Rows) != 0 {
		t.Errorf("expected no rows, got %d", len(table.Rows))
	}
	if table.Dimension != DimRiskCategory {
		t.Errorf("unexpected dimension %q", table.Dimension)
	}
}

func TestAggregateAll_Deterministic(t *testing.T) {
	policies := samplePortfolio()
	first := AggregateAll(policies, StandardDimensions())

	for run := 0; run < 5; run++ {
		again := AggregateAll(policies, StandardDimensions())
		if len(again) != len(first) {
			t.Fatalf("run %d: table count changed", run)
		}
		for i := range first {
			if len(first[i].Rows) != len(again[i].Rows) {
				t.Fatalf("run %d: %s row count changed", run, first[i].Dimension)
			}
			for j := range first[i].Rows {
				if first[i].Rows[j].KeyString() != again[i].Rows[j].KeyString() {
					t.Errorf("run %d: %s row %d order changed", run, first[i].Dimension, j)
				}
			}
		}
	}
}

func TestStandardDimensions_Names(t *testing.T) {
	want := []string{
		DimRiskCategory, DimPolicyType, DimLocation, DimAgeGroup, DimIncomeGroup,
		DimPolicySummary, DimMonthlyTrends, DimDemographics, DimCustomerSegments,
	}
	dims := StandardDimensions()
	if len(dims) != len(want) {
		t.Fatalf("expected %d dimensions, got %d", len(want), len(dims))
	}
	for i, d := range dims {
		if d.Name != want[i] {
			t.Errorf("dimension %d: expected %s, got %s", i, want[i], d.Name)
		}
	}
	if _, ok := DimensionByName("nope"); ok {
		t.Error("expected unknown dimension lookup to fail")
	}
}

package reporting

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"policy-reserve-lab/internal/domain"
)

var fixedClock = func() time.Time { return time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC) }

func samplePolicies() []domain.EnrichedPolicy {
	start := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	return []domain.EnrichedPolicy{
		{
			PolicyRecord: domain.PolicyRecord{PolicyID: "p1", Age: 30, PremiumAmount: 1000, PreviousClaims: 1, Location: "Urban", StartDate: start},
			Risk:         domain.RiskAssessment{Score: 0, Category: domain.RiskLow},
			LossRatio:    1,
		},
		{
			PolicyRecord: domain.PolicyRecord{PolicyID: "p2", Age: 70, PremiumAmount: 500.5, PreviousClaims: 3, Location: "Rural, North", StartDate: start.AddDate(2, 0, 0)},
			Risk:         domain.RiskAssessment{Score: 45, Category: domain.RiskHigh},
			LossRatio:    5.994006,
		},
		{
			PolicyRecord: domain.PolicyRecord{PolicyID: "p3", Age: 40, PremiumAmount: 0},
			Risk:         domain.RiskAssessment{Score: 10, Category: domain.RiskLow},
		},
	}
}

func sampleInput() Input {
	std := 2.5
	return Input{
		Run: domain.RunInfo{
			RunID:       "3f0c6b5e-4a7d-4e0a-9d4b-2f2d0b9f6a11",
			DataVersion: "abcdef0123456789abcdef",
			Source:      "csv:policies.csv",
			AsOf:        fixedClock(),
			PolicyCount: 3,
		},
		Policies:  samplePolicies(),
		LoadStats: &domain.LoadStats{Rows: 3, Imputed: map[string]int{"Age": 1, "Previous Claims": 2}},
		DataQuality: DataQualitySection{
			Checks:          []QualityCheckRow{{Name: "Policies loaded", Threshold: "> 0", Actual: "3", Pass: true}},
			Warnings:        []string{"1 policies have non-positive premium"},
			AllChecksPassed: true,
		},
		KPIs: []domain.KPI{
			{Metric: "Total Policies", Value: 3},
			{Metric: "Total Premiums", Value: 1500.5, Unit: "$"},
			{Metric: "High Risk Policies", Value: 33.333333, Unit: "%", Target: "< 20%", Status: domain.KPIStatusNeedsAttention},
		},
		Distribution: []domain.RiskDistributionRow{
			{Category: domain.RiskLow, Count: 2, Percentage: 66.666667},
			{Category: domain.RiskHigh, Count: 1, Percentage: 33.333333},
		},
		Aggregates: []domain.AggregateTable{
			{
				Dimension: "risk_category",
				KeyNames:  []string{"risk_category"},
				Rows: []domain.CategoryAggregate{
					{
						Dimension:   "risk_category",
						KeyNames:    []string{"risk_category"},
						Key:         []string{"Low"},
						PolicyCount: 2,
						Columns: map[domain.Column]domain.ColumnStats{
							domain.ColumnPremium: {Sum: 1000, Mean: 500, Stddev: &std},
							domain.ColumnClaims:  {Sum: 1, Mean: 0.5},
						},
						PooledLossRatio: 1,
					},
				},
			},
		},
		Reserves: []domain.ReserveRequirement{
			{Category: domain.RiskLow, PolicyCount: 2, TotalPremiums: 1000, TotalRequired: 1000, BindingMethod: domain.MethodClaimsBased, ActualExposure: 1000, ReserveRatio: domain.NewRatio(1000, 1000)},
			{Category: domain.RiskHigh, PolicyCount: 1, TotalPremiums: 500.5, TotalRequired: 75.08, BindingMethod: domain.MethodPremiumBased, ReserveRatio: domain.NewRatio(75.08, 0)},
		},
		Capital: domain.CapitalAdequacy{TotalRequired: 1075.08, TotalExposure: 1000, ReserveCoverageRatio: domain.NewRatio(1075.08, 1000)},
		Recommendations: []domain.Recommendation{
			{Scope: "Low", Issue: "Adequate reserves", Action: "Maintain current reserve levels", Priority: domain.PriorityLow},
		},
		Stress: []domain.StressResult{
			{Scenario: domain.StressSevere, StressedPremiums: 1500.5, StressedClaims: 8, RequiredReserves: 225.08, ActualExposure: 8000, CapitalAdequacy: -7774.92, Status: domain.StatusInadequate},
		},
	}
}

func TestGenerate_DataSummary(t *testing.T) {
	report := NewGenerator().WithClock(fixedClock).Generate(sampleInput())

	s := report.DataSummary
	if s.TotalPolicies != 3 {
		t.Errorf("expected 3 policies, got %d", s.TotalPolicies)
	}
	if s.TotalPremiums != 1500.5 {
		t.Errorf("expected premiums 1500.5, got %f", s.TotalPremiums)
	}
	if s.TotalClaims != 4 {
		t.Errorf("expected claims 4, got %f", s.TotalClaims)
	}
	if s.UnknownStartDates != 1 {
		t.Errorf("expected 1 unknown start date, got %d", s.UnknownStartDates)
	}
	if s.StartDateMin.Year() != 2021 || s.StartDateMax.Year() != 2023 {
		t.Errorf("unexpected start date range %v - %v", s.StartDateMin, s.StartDateMax)
	}
	if s.ImputedCells != 3 {
		t.Errorf("expected 3 imputed cells, got %d", s.ImputedCells)
	}
	if !report.GeneratedAt.Equal(fixedClock()) {
		t.Errorf("expected injected clock, got %v", report.GeneratedAt)
	}
}

func TestGenerate_NilLoadStats(t *testing.T) {
	in := sampleInput()
	in.LoadStats = nil

	report := NewGenerator().WithClock(fixedClock).Generate(in)
	if report.DataSummary.ImputedCells != 0 {
		t.Errorf("expected 0 imputed cells, got %d", report.DataSummary.ImputedCells)
	}
}

func TestRenderMarkdown_Sections(t *testing.T) {
	md := RenderMarkdown(NewGenerator().WithClock(fixedClock).Generate(sampleInput()))

	for _, want := range []string{
		"# Insurance Reserve Report",
		"Generated: 2025-01-15T12:00:00Z",
		"Data version: abcdef012345",
		"## Data Summary",
		"## Data Quality",
		"## Executive Summary",
		"## Loss Ratio Analysis",
		"### By Risk Category",
		"## Reserve Requirements",
		"### Capital Adequacy",
		"## Recommendations",
		"## Stress Testing",
		"premium-based method only",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_Values(t *testing.T) {
	md := RenderMarkdown(NewGenerator().WithClock(fixedClock).Generate(sampleInput()))

	for _, want := range []string{
		"| Total Premiums | $1,500.50 |",
		"| High Risk Policies | 33.33% | < 20% | Needs Attention |",
		"| Total Policies | 3 | - | - |",
		"| Policies loaded | > 0 | 3 | PASS |",
		"- 1 policies have non-positive premium",
		"| Low | 2 | 66.67% |",
		"| $75.08 | premium_based | $0.00 | $0.00 | n/a |",
		"| Reserve Coverage Ratio | 1.0751 |",
		"| Severe Stress | 2.00 | 1.00 |",
		"$-7,774.92",
		"| Start Date Range | 2021-03-01 to 2023-03-01 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_Deterministic(t *testing.T) {
	g := NewGenerator().WithClock(fixedClock)
	a := RenderMarkdown(g.Generate(sampleInput()))
	b := RenderMarkdown(g.Generate(sampleInput()))
	if a != b {
		t.Error("markdown differs between identical runs")
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	md := RenderMarkdown(NewGenerator().WithClock(fixedClock).Generate(Input{}))

	for _, want := range []string{
		"No data quality checks performed.",
		"No KPIs available.",
		"No reserve requirements available.",
		"No recommendations.",
		"No stress scenarios run.",
		"| Start Date Range | n/a |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestFormatKPIValue(t *testing.T) {
	tests := []struct {
		kpi  domain.KPI
		want string
	}{
		{domain.KPI{Value: 1234567.891, Unit: "$"}, "$1,234,567.89"},
		{domain.KPI{Value: 12.3456, Unit: "%"}, "12.35%"},
		{domain.KPI{Value: 42}, "42"},
		{domain.KPI{Value: 0.4215}, "0.42"},
	}
	for _, tt := range tests {
		if got := FormatKPIValue(tt.kpi); got != tt.want {
			t.Errorf("FormatKPIValue(%+v) = %q, want %q", tt.kpi, got, tt.want)
		}
	}
}

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	return records
}

func TestRenderEnrichedPoliciesCSV(t *testing.T) {
	data, err := RenderEnrichedPoliciesCSV(samplePolicies())
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	records := parseCSV(t, data)

	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(records))
	}
	if len(records[0]) != len(enrichedPolicyHeader) {
		t.Fatalf("expected %d columns, got %d", len(enrichedPolicyHeader), len(records[0]))
	}
	// Location with a comma survives quoting.
	if records[2][9] != "Rural, North" {
		t.Errorf("expected quoted location, got %q", records[2][9])
	}
	if records[1][14] != "2021-03-01 00:00:00" {
		t.Errorf("unexpected start date %q", records[1][14])
	}
	if records[3][14] != "" {
		t.Errorf("expected empty unknown start date, got %q", records[3][14])
	}
	if records[2][18] != "500.50" {
		t.Errorf("expected premium 500.50, got %q", records[2][18])
	}
	if records[2][20] != "High" {
		t.Errorf("expected High category, got %q", records[2][20])
	}
}

func TestRenderAggregateCSV(t *testing.T) {
	in := sampleInput()
	data, err := RenderAggregateCSV(&in.Aggregates[0])
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	records := parseCSV(t, data)

	header := records[0]
	wantCols := 1 + 1 + 6*len(domain.AggregatedColumns) + 1
	if len(header) != wantCols {
		t.Fatalf("expected %d columns, got %d", wantCols, len(header))
	}
	if header[0] != "risk_category" || header[1] != "policy_count" || header[2] != "premium_amount_sum" {
		t.Errorf("unexpected header prefix %v", header[:3])
	}
	if header[len(header)-1] != "pooled_loss_ratio" {
		t.Errorf("expected pooled_loss_ratio last, got %s", header[len(header)-1])
	}

	row := records[1]
	if row[0] != "Low" || row[1] != "2" {
		t.Errorf("unexpected key columns %v", row[:2])
	}
	if row[7] != "2.500000" {
		t.Errorf("expected premium std 2.500000, got %q", row[7])
	}
	// Claims std is nil: empty cell.
	if row[13] != "" {
		t.Errorf("expected empty claims std, got %q", row[13])
	}
}

func TestRenderReservesCSV_UndefinedRatio(t *testing.T) {
	data, err := RenderReservesCSV(sampleInput().Reserves)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	records := parseCSV(t, data)

	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	last := len(records[0]) - 1
	if records[1][last] != "1.0000" {
		t.Errorf("expected ratio 1.0000, got %q", records[1][last])
	}
	if records[2][last] != "n/a" {
		t.Errorf("expected n/a ratio, got %q", records[2][last])
	}
	for _, cell := range records[2] {
		if strings.Contains(cell, "Inf") || strings.Contains(cell, "NaN") {
			t.Errorf("non-finite value in output: %q", cell)
		}
	}
}

func TestRenderCapitalCSV(t *testing.T) {
	data, err := RenderCapitalCSV(domain.CapitalAdequacy{TotalRequired: 10, OverallAdequacy: -5.555})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	records := parseCSV(t, data)

	if len(records) != 7 {
		t.Fatalf("expected header + 6 rows, got %d", len(records))
	}
	if records[4][1] != "-5.56" {
		t.Errorf("expected adequacy -5.56, got %q", records[4][1])
	}
	if records[5][1] != "n/a" {
		t.Errorf("expected n/a coverage, got %q", records[5][1])
	}
}

func TestRenderStressAndKPICSV(t *testing.T) {
	in := sampleInput()

	stressData, err := RenderStressCSV(in.Stress)
	if err != nil {
		t.Fatalf("render stress failed: %v", err)
	}
	stress := parseCSV(t, stressData)
	if stress[1][0] != domain.ScenarioSevereStress || stress[1][11] != "Inadequate" {
		t.Errorf("unexpected stress row %v", stress[1])
	}

	kpiData, err := RenderKPICSV(in.KPIs)
	if err != nil {
		t.Fatalf("render kpis failed: %v", err)
	}
	kpis := parseCSV(t, kpiData)
	if len(kpis) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(kpis))
	}
	if kpis[3][2] != "%" || kpis[3][4] != domain.KPIStatusNeedsAttention {
		t.Errorf("unexpected KPI row %v", kpis[3])
	}

	distData, err := RenderRiskDistributionCSV(in.Distribution)
	if err != nil {
		t.Fatalf("render distribution failed: %v", err)
	}
	dist := parseCSV(t, distData)
	if dist[1][0] != "Low" || dist[1][1] != "2" {
		t.Errorf("unexpected distribution row %v", dist[1])
	}
}

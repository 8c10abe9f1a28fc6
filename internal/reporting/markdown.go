package reporting

import (
	"fmt"
	"math"
	"strings"
	"time"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/money"
)

// lossRatioDimensions are rendered as loss ratio tables in the report.
// Every dimension is still exported as CSV.
var lossRatioDimensions = []struct {
	name  string
	title string
}{
	{"risk_category", "Risk Category"},
	{"policy_type", "Policy Type"},
	{"location", "Location"},
	{"age_group", "Age Group"},
	{"income_group", "Income Group"},
}

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Insurance Reserve Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s | Data version: %s\n\n", r.Run.RunID, shortHash(r.Run.DataVersion)))
	sb.WriteString(fmt.Sprintf("Valuation date: %s\n\n", r.Run.AsOf.Format("2006-01-02")))

	writeDataSummary(&sb, r.DataSummary)
	writeDataQuality(&sb, r.DataQuality)
	writeExecutiveSummary(&sb, r.KPIs, r.RiskDistribution)
	writeLossRatios(&sb, r.Aggregates)
	writeReserves(&sb, r.Reserves, r.Capital)
	writeRecommendations(&sb, r.Recommendations)
	writeStress(&sb, r.Stress)

	return sb.String()
}

func writeDataSummary(sb *strings.Builder, s DataSummary) {
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Source | %s |\n", s.Source))
	sb.WriteString(fmt.Sprintf("| Total Policies | %d |\n", s.TotalPolicies))
	sb.WriteString(fmt.Sprintf("| Total Premiums | %s |\n", money.Format(s.TotalPremiums)))
	sb.WriteString(fmt.Sprintf("| Total Previous Claims | %.0f |\n", s.TotalClaims))
	sb.WriteString(fmt.Sprintf("| Start Date Range | %s |\n", dateRange(s.StartDateMin, s.StartDateMax)))
	sb.WriteString(fmt.Sprintf("| Unknown Start Dates | %d |\n", s.UnknownStartDates))
	sb.WriteString(fmt.Sprintf("| Imputed Cells | %d |\n", s.ImputedCells))
	sb.WriteString("\n")
}

func writeDataQuality(sb *strings.Builder, q DataQualitySection) {
	sb.WriteString("## Data Quality\n\n")
	if len(q.Checks) == 0 && len(q.Warnings) == 0 {
		sb.WriteString("No data quality checks performed.\n\n")
		return
	}

	if len(q.Checks) > 0 {
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range q.Checks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if q.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Results below are computed on the data as loaded.\n\n")
		}
	}

	if len(q.Warnings) > 0 {
		sb.WriteString("### Warnings\n\n")
		for _, w := range q.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}
}

func writeExecutiveSummary(sb *strings.Builder, kpis []domain.KPI, dist []domain.RiskDistributionRow) {
	sb.WriteString("## Executive Summary\n\n")
	if len(kpis) > 0 {
		sb.WriteString("| Metric | Value | Target | Status |\n")
		sb.WriteString("|--------|-------|--------|--------|\n")
		for _, k := range kpis {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				k.Metric, FormatKPIValue(k), dash(k.Target), dash(k.Status)))
		}
	} else {
		sb.WriteString("No KPIs available.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("### Risk Distribution\n\n")
	if len(dist) > 0 {
		sb.WriteString("| Risk Category | Policies | Share |\n")
		sb.WriteString("|---------------|----------|-------|\n")
		for _, d := range dist {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f%% |\n", d.Category, d.Count, d.Percentage))
		}
	} else {
		sb.WriteString("No risk distribution available.\n")
	}
	sb.WriteString("\n")
}

func writeLossRatios(sb *strings.Builder, tables []domain.AggregateTable) {
	sb.WriteString("## Loss Ratio Analysis\n\n")
	sb.WriteString("Per-policy loss ratio is previous claims x 1000 / premium. ")
	sb.WriteString("Pooled loss ratio is total claims x 1000 / total premiums of the group.\n\n")

	for _, d := range lossRatioDimensions {
		t := findTable(tables, d.name)
		if t == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("### By %s\n\n", d.title))
		if len(t.Rows) == 0 {
			sb.WriteString("No policies in this dimension.\n\n")
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | Policies | Total Premiums | Avg Premium | Total Claims | Avg Loss Ratio | Pooled Loss Ratio | Avg Risk Score |\n", d.title))
		sb.WriteString("|---|----------|----------------|-------------|--------------|----------------|-------------------|----------------|\n")
		for i := range t.Rows {
			a := &t.Rows[i]
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %.0f | %.4f | %.4f | %.2f |\n",
				a.KeyString(), a.PolicyCount,
				money.Format(a.TotalPremiums()), money.Format(a.AvgPremium()),
				a.TotalClaims(), a.AvgLossRatio(), a.PooledLossRatio,
				a.Stats(domain.ColumnRiskScore).Mean))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("### Segment Tables\n\n")
	sb.WriteString("| Dimension | Keys | Groups | Policies |\n")
	sb.WriteString("|-----------|------|--------|----------|\n")
	for i := range tables {
		t := &tables[i]
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d |\n",
			t.Dimension, strings.Join(t.KeyNames, ", "), len(t.Rows), t.PolicyCount()))
	}
	sb.WriteString("\n")
}

func writeReserves(sb *strings.Builder, reqs []domain.ReserveRequirement, c domain.CapitalAdequacy) {
	sb.WriteString("## Reserve Requirements\n\n")
	if len(reqs) == 0 {
		sb.WriteString("No reserve requirements available.\n\n")
		return
	}

	sb.WriteString("| Risk Category | Policies | Total Premiums | Premium-Based | Claims-Based | Risk-Adjusted | IBNR | Required | Method | Exposure | Adequacy | Reserve Ratio |\n")
	sb.WriteString("|---------------|----------|----------------|---------------|--------------|---------------|------|----------|--------|----------|----------|---------------|\n")
	for _, r := range reqs {
		sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			r.Category, r.PolicyCount, money.Format(r.TotalPremiums),
			money.Format(r.PremiumBased), money.Format(r.ClaimsBased),
			money.Format(r.RiskAdjusted), money.Format(r.IBNR),
			money.Format(r.TotalRequired), r.BindingMethod,
			money.Format(r.ActualExposure), money.Format(r.Adequacy),
			r.ReserveRatio))
	}
	sb.WriteString("\n")

	sb.WriteString("### Capital Adequacy\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Required Reserves | %s |\n", money.Format(c.TotalRequired)))
	sb.WriteString(fmt.Sprintf("| Total Exposure | %s |\n", money.Format(c.TotalExposure)))
	sb.WriteString(fmt.Sprintf("| Total Premiums | %s |\n", money.Format(c.TotalPremiums)))
	sb.WriteString(fmt.Sprintf("| Overall Adequacy | %s |\n", money.Format(c.OverallAdequacy)))
	sb.WriteString(fmt.Sprintf("| Reserve Coverage Ratio | %s |\n", c.ReserveCoverageRatio))
	sb.WriteString(fmt.Sprintf("| Premium Coverage Ratio | %s |\n", c.PremiumCoverageRatio))
	sb.WriteString("\n")
}

func writeRecommendations(sb *strings.Builder, recs []domain.Recommendation) {
	sb.WriteString("## Recommendations\n\n")
	if len(recs) == 0 {
		sb.WriteString("No recommendations.\n\n")
		return
	}

	sb.WriteString("| Scope | Issue | Current Adequacy | Recommendation | Priority |\n")
	sb.WriteString("|-------|-------|------------------|----------------|----------|\n")
	for _, r := range recs {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			r.Scope, r.Issue, money.Format(r.CurrentAdequacy), r.Action, r.Priority))
	}
	sb.WriteString("\n")
}

func writeStress(sb *strings.Builder, results []domain.StressResult) {
	sb.WriteString("## Stress Testing\n\n")
	if len(results) == 0 {
		sb.WriteString("No stress scenarios run.\n\n")
		return
	}

	sb.WriteString("| Scenario | Claims x | Premium x | Stressed Premiums | Stressed Claims | Loss Ratio | Required | Exposure | Adequacy | Capital Ratio | Status |\n")
	sb.WriteString("|----------|----------|-----------|-------------------|-----------------|------------|----------|----------|----------|---------------|--------|\n")
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %s | %.1f | %s | %s | %s | %s | %s | %s |\n",
			r.Scenario.Name, r.Scenario.ClaimsMultiplier, r.Scenario.PremiumMultiplier,
			money.Format(r.StressedPremiums), r.StressedClaims, r.StressedLossRatio,
			money.Format(r.RequiredReserves), money.Format(r.ActualExposure),
			money.Format(r.CapitalAdequacy), r.CapitalRatio, r.Status))
	}
	sb.WriteString("\n")
	sb.WriteString("Note: stressed required reserves use the premium-based method only ")
	sb.WriteString("(15% of stressed premiums), not the maximum of the four methods used above.\n\n")
}

// FormatKPIValue renders a KPI value according to its unit.
func FormatKPIValue(k domain.KPI) string {
	switch k.Unit {
	case "$":
		return money.Format(k.Value)
	case "%":
		return fmt.Sprintf("%.2f%%", k.Value)
	}
	if k.Value == math.Trunc(k.Value) {
		return fmt.Sprintf("%.0f", k.Value)
	}
	return fmt.Sprintf("%.2f", k.Value)
}

func dateRange(from, to time.Time) string {
	if from.IsZero() {
		return "n/a"
	}
	return from.Format("2006-01-02") + " to " + to.Format("2006-01-02")
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

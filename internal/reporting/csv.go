package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/money"
)

// Formats used by every CSV extract.
const (
	csvDateLayout = "2006-01-02 15:04:05"
	floatDigits   = 6
)

var enrichedPolicyHeader = []string{
	"policy_id", "age", "gender", "annual_income", "marital_status",
	"number_of_dependents", "education_level", "occupation", "health_score",
	"location", "policy_type", "previous_claims", "credit_score",
	"insurance_duration", "policy_start_date", "customer_feedback",
	"smoking_status", "exercise_frequency", "premium_amount",
	"risk_score", "risk_category", "loss_ratio", "premium_per_year",
	"customer_value", "policy_duration_years", "age_group", "income_group",
}

// RenderEnrichedPoliciesCSV renders every enriched policy, one row each, in input order.
func RenderEnrichedPoliciesCSV(policies []domain.EnrichedPolicy) ([]byte, error) {
	rows := make([][]string, 0, len(policies))
	for i := range policies {
		p := &policies[i]
		rows = append(rows, []string{
			p.PolicyID,
			num(p.Age),
			p.Gender,
			num(p.AnnualIncome),
			p.MaritalStatus,
			num(p.NumberOfDependents),
			p.EducationLevel,
			p.Occupation,
			num(p.HealthScore),
			p.Location,
			p.PolicyType,
			num(p.PreviousClaims),
			num(p.CreditScore),
			num(p.InsuranceDuration),
			formatDate(p.StartDate),
			p.CustomerFeedback,
			p.SmokingStatus,
			p.ExerciseFrequency,
			money.Fixed(p.PremiumAmount),
			strconv.Itoa(p.Risk.Score),
			string(p.Risk.Category),
			num(p.LossRatio),
			money.Fixed(p.PremiumPerYear),
			money.Fixed(p.CustomerValue),
			num(p.PolicyDurationYears),
			p.AgeGroup,
			p.IncomeGroup,
		})
	}
	return writeCSV(enrichedPolicyHeader, rows)
}

// RenderAggregateCSV renders one dimension table. Each aggregated column
// expands to sum, mean, median, min, max and std; std is empty for
// single-policy groups.
func RenderAggregateCSV(t *domain.AggregateTable) ([]byte, error) {
	header := append([]string{}, t.KeyNames...)
	header = append(header, "policy_count")
	for _, c := range domain.AggregatedColumns {
		name := string(c)
		header = append(header,
			name+"_sum", name+"_mean", name+"_median", name+"_min", name+"_max", name+"_std")
	}
	header = append(header, "pooled_loss_ratio")

	rows := make([][]string, 0, len(t.Rows))
	for i := range t.Rows {
		a := &t.Rows[i]
		row := append([]string{}, a.Key...)
		row = append(row, strconv.Itoa(a.PolicyCount))
		for _, c := range domain.AggregatedColumns {
			s := a.Stats(c)
			std := ""
			if s.Stddev != nil {
				std = num(*s.Stddev)
			}
			row = append(row, num(s.Sum), num(s.Mean), num(s.Median), num(s.Min), num(s.Max), std)
		}
		row = append(row, num(a.PooledLossRatio))
		rows = append(rows, row)
	}
	return writeCSV(header, rows)
}

// RenderReservesCSV renders the per-category reserve analysis.
func RenderReservesCSV(reqs []domain.ReserveRequirement) ([]byte, error) {
	header := []string{
		"risk_category", "policy_count", "total_premiums", "avg_premium",
		"total_claims", "avg_loss_ratio", "avg_duration",
		"premium_based_reserve", "claims_based_reserve", "risk_adjusted_reserve", "ibnr_reserve",
		"total_required_reserve", "binding_method", "actual_exposure", "reserve_adequacy", "reserve_ratio",
	}
	rows := make([][]string, 0, len(reqs))
	for _, r := range reqs {
		rows = append(rows, []string{
			string(r.Category),
			strconv.Itoa(r.PolicyCount),
			money.Fixed(r.TotalPremiums),
			money.Fixed(r.AvgPremium),
			num(r.TotalClaims),
			num(r.AvgLossRatio),
			num(r.AvgDuration),
			money.Fixed(r.PremiumBased),
			money.Fixed(r.ClaimsBased),
			money.Fixed(r.RiskAdjusted),
			money.Fixed(r.IBNR),
			money.Fixed(r.TotalRequired),
			string(r.BindingMethod),
			money.Fixed(r.ActualExposure),
			money.Fixed(r.Adequacy),
			r.ReserveRatio.String(),
		})
	}
	return writeCSV(header, rows)
}

// RenderCapitalCSV renders the portfolio capital adequacy as metric/value rows.
func RenderCapitalCSV(c domain.CapitalAdequacy) ([]byte, error) {
	rows := [][]string{
		{"total_required_reserves", money.Fixed(c.TotalRequired)},
		{"total_exposure", money.Fixed(c.TotalExposure)},
		{"total_premiums", money.Fixed(c.TotalPremiums)},
		{"overall_adequacy", money.Fixed(c.OverallAdequacy)},
		{"reserve_coverage_ratio", c.ReserveCoverageRatio.String()},
		{"premium_coverage_ratio", c.PremiumCoverageRatio.String()},
	}
	return writeCSV([]string{"metric", "value"}, rows)
}

// RenderRecommendationsCSV renders reserve action items.
func RenderRecommendationsCSV(recs []domain.Recommendation) ([]byte, error) {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.Scope,
			r.Issue,
			money.Fixed(r.CurrentAdequacy),
			r.Action,
			string(r.Priority),
		})
	}
	return writeCSV([]string{"scope", "issue", "current_adequacy", "recommendation", "priority"}, rows)
}

// RenderStressCSV renders stress results in scenario catalog order.
func RenderStressCSV(results []domain.StressResult) ([]byte, error) {
	header := []string{
		"scenario", "description", "claims_multiplier", "premium_multiplier",
		"stressed_premiums", "stressed_claims", "stressed_loss_ratio",
		"required_reserves", "actual_exposure", "capital_adequacy", "capital_ratio", "status",
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Scenario.Name,
			r.Scenario.Description,
			num(r.Scenario.ClaimsMultiplier),
			num(r.Scenario.PremiumMultiplier),
			money.Fixed(r.StressedPremiums),
			num(r.StressedClaims),
			r.StressedLossRatio.String(),
			money.Fixed(r.RequiredReserves),
			money.Fixed(r.ActualExposure),
			money.Fixed(r.CapitalAdequacy),
			r.CapitalRatio.String(),
			string(r.Status),
		})
	}
	return writeCSV(header, rows)
}

// RenderKPICSV renders the executive KPIs. Values are raw numbers; the unit
// column carries "$" or "%".
func RenderKPICSV(kpis []domain.KPI) ([]byte, error) {
	rows := make([][]string, 0, len(kpis))
	for _, k := range kpis {
		rows = append(rows, []string{k.Metric, num(k.Value), k.Unit, k.Target, k.Status})
	}
	return writeCSV([]string{"metric", "value", "unit", "target", "status"}, rows)
}

// RenderRiskDistributionCSV renders policy counts and shares per risk category.
func RenderRiskDistributionCSV(dist []domain.RiskDistributionRow) ([]byte, error) {
	rows := make([][]string, 0, len(dist))
	for _, d := range dist {
		rows = append(rows, []string{string(d.Category), strconv.Itoa(d.Count), num(d.Percentage)})
	}
	return writeCSV([]string{"risk_category", "count", "percentage"}, rows)
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write rows: %w", err)
	}
	return buf.Bytes(), nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', floatDigits, 64)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(csvDateLayout)
}

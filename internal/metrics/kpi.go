package metrics

import (
	"fmt"

	"policy-reserve-lab/internal/domain"
)

// Executive targets
const (
	TargetLossRatio     = 0.70 // overall loss ratio must stay below 70%
	TargetHighRiskShare = 20.0 // high-risk share (%) must stay below 20%
)

// KPI metric names
const (
	KPITotalPolicies    = "Total Policies"
	KPITotalPremium     = "Total Premium Volume"
	KPIAvgPremium       = "Average Premium"
	KPITotalClaims      = "Total Claims"
	KPIOverallLossRatio = "Overall Loss Ratio"
	KPIHighRiskShare    = "High Risk Policies"
	KPISatisfaction     = "Customer Satisfaction"
	KPIAvgRiskScore     = "Average Risk Score"
	KPIAvgAge           = "Average Customer Age"
	KPIAvgHealthScore   = "Average Health Score"
)

// Totals computes the base metrics a stress test starts from.
func Totals(policies []domain.EnrichedPolicy) domain.PortfolioTotals {
	t := domain.PortfolioTotals{TotalPolicies: len(policies)}
	lossRatios := make([]float64, len(policies))
	for i := range policies {
		t.TotalPremiums += policies[i].PremiumAmount
		t.TotalClaims += policies[i].PreviousClaims
		lossRatios[i] = policies[i].LossRatio
	}
	t.AvgLossRatio = computeMean(lossRatios)
	return t
}

// OverallLossRatio is sum(claims*1000)/sum(premium) over the portfolio.
func OverallLossRatio(policies []domain.EnrichedPolicy) float64 {
	t := Totals(policies)
	return pooledLossRatio(t.TotalClaims, t.TotalPremiums)
}

// ComputeKPIs produces the portfolio indicator table, including the
// two executive targets.
func ComputeKPIs(policies []domain.EnrichedPolicy) []domain.KPI {
	n := len(policies)
	totals := Totals(policies)

	var (
		highRisk, feedbackRows, satisfied int
		scores, ages, health              = make([]float64, n), make([]float64, n), make([]float64, n)
	)
	for i := range policies {
		p := &policies[i]
		if p.Risk.Category.IsHighRisk() {
			highRisk++
		}
		if p.CustomerFeedback != "" {
			feedbackRows++
			if p.CustomerFeedback == domain.FeedbackGood || p.CustomerFeedback == domain.FeedbackExcellent {
				satisfied++
			}
		}
		scores[i] = float64(p.Risk.Score)
		ages[i] = p.Age
		health[i] = p.HealthScore
	}

	lossRatio := pooledLossRatio(totals.TotalClaims, totals.TotalPremiums)
	highRiskShare := percentage(highRisk, n)

	return []domain.KPI{
		{Metric: KPITotalPolicies, Value: float64(n)},
		{Metric: KPITotalPremium, Value: totals.TotalPremiums, Unit: "$"},
		{Metric: KPIAvgPremium, Value: safeDiv(totals.TotalPremiums, float64(n)), Unit: "$"},
		{Metric: KPITotalClaims, Value: totals.TotalClaims},
		targetKPI(KPIOverallLossRatio, lossRatio*100, "%", TargetLossRatio*100),
		targetKPI(KPIHighRiskShare, highRiskShare, "%", TargetHighRiskShare),
		{Metric: KPISatisfaction, Value: percentage(satisfied, feedbackRows), Unit: "%"},
		{Metric: KPIAvgRiskScore, Value: computeMean(scores)},
		{Metric: KPIAvgAge, Value: computeMean(ages)},
		{Metric: KPIAvgHealthScore, Value: computeMean(health)},
	}
}

// RiskDistribution counts policies per risk category. Categories with no
// policies are omitted.
func RiskDistribution(policies []domain.EnrichedPolicy) []domain.RiskDistributionRow {
	counts := make(map[domain.RiskCategory]int)
	for i := range policies {
		counts[policies[i].Risk.Category]++
	}

	var rows []domain.RiskDistributionRow
	for _, c := range domain.RiskCategories {
		if counts[c] == 0 {
			continue
		}
		rows = append(rows, domain.RiskDistributionRow{
			Category:   c,
			Count:      counts[c],
			Percentage: percentage(counts[c], len(policies)),
		})
	}
	return rows
}

func targetKPI(name string, value float64, unit string, limit float64) domain.KPI {
	status := domain.KPIStatusNeedsAttention
	if value < limit {
		status = domain.KPIStatusGood
	}
	return domain.KPI{
		Metric: name,
		Value:  value,
		Unit:   unit,
		Target: fmt.Sprintf("<%.0f%%", limit),
		Status: status,
	}
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

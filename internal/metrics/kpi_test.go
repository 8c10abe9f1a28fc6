package metrics

import (
	"math"
	"testing"

	"policy-reserve-lab/internal/domain"
)

func kpiByName(kpis []domain.KPI, name string) (domain.KPI, bool) {
	for _, k := range kpis {
		if k.Metric == name {
			return k, true
		}
	}
	return domain.KPI{}, false
}

func TestTotals(t *testing.T) {
	totals := Totals(samplePortfolio())

	if totals.TotalPolicies != 5 {
		t.Errorf("expected 5 policies, got %d", totals.TotalPolicies)
	}
	if totals.TotalPremiums != 5800 {
		t.Errorf("expected premiums 5800, got %f", totals.TotalPremiums)
	}
	if totals.TotalClaims != 8 {
		t.Errorf("expected claims 8, got %f", totals.TotalClaims)
	}
}

func TestComputeKPIs_Targets(t *testing.T) {
	policies := samplePortfolio()
	kpis := ComputeKPIs(policies)

	lr, ok := kpiByName(kpis, KPIOverallLossRatio)
	if !ok {
		t.Fatal("loss ratio KPI missing")
	}
	// 8000 / 5800 = 137.9%
	if math.Abs(lr.Value-8000.0/5800.0*100) > 1e-9 {
		t.Errorf("unexpected loss ratio %f", lr.Value)
	}
	if lr.Status != domain.KPIStatusNeedsAttention {
		t.Errorf("expected Needs Attention, got %s", lr.Status)
	}
	if lr.Target != "<70%" {
		t.Errorf("unexpected target %q", lr.Target)
	}

	hr, _ := kpiByName(kpis, KPIHighRiskShare)
	// p3 Very High, p5 High
	if hr.Value != 40 {
		t.Errorf("expected 40%% high risk, got %f", hr.Value)
	}
	if hr.Status != domain.KPIStatusNeedsAttention {
		t.Errorf("expected Needs Attention, got %s", hr.Status)
	}

	count, _ := kpiByName(kpis, KPITotalPolicies)
	if count.Value != 5 || count.Target != "" {
		t.Errorf("unexpected count KPI %+v", count)
	}
}

func TestComputeKPIs_GoodStatus(t *testing.T) {
	policies := samplePortfolio()[:2] // two Low policies, 1 claim over 3000 premium
	kpis := ComputeKPIs(policies)

	lr, _ := kpiByName(kpis, KPIOverallLossRatio)
	if lr.Status != domain.KPIStatusGood {
		t.Errorf("expected Good loss ratio, got %s (%f)", lr.Status, lr.Value)
	}
	hr, _ := kpiByName(kpis, KPIHighRiskShare)
	if hr.Status != domain.KPIStatusGood {
		t.Errorf("expected Good high-risk share, got %s", hr.Status)
	}
}

func TestComputeKPIs_Satisfaction(t *testing.T) {
	policies := samplePortfolio()
	policies[0].CustomerFeedback = domain.FeedbackGood
	policies[1].CustomerFeedback = domain.FeedbackExcellent
	policies[2].CustomerFeedback = "Poor"
	policies[3].CustomerFeedback = domain.FeedbackAverage
	// policies[4] has no feedback and is not counted

	sat, _ := kpiByName(ComputeKPIs(policies), KPISatisfaction)
	if sat.Value != 50 {
		t.Errorf("expected 50%% satisfaction, got %f", sat.Value)
	}
}

func TestComputeKPIs_Empty(t *testing.T) {
	kpis := ComputeKPIs(nil)
	for _, k := range kpis {
		if math.IsNaN(k.Value) || math.IsInf(k.Value, 0) {
			t.Errorf("%s: expected finite value, got %f", k.Metric, k.Value)
		}
	}
}

func TestRiskDistribution(t *testing.T) {
	rows := RiskDistribution(samplePortfolio())

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Category != domain.RiskLow || rows[0].Count != 3 || rows[0].Percentage != 60 {
		t.Errorf("unexpected Low row %+v", rows[0])
	}
	total := 0.0
	for _, r := range rows {
		total += r.Percentage
	}
	if math.Abs(total-100) > 1e-9 {
		t.Errorf("percentages sum to %f", total)
	}
}

package stress

import (
	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/reserve"
	"policy-reserve-lab/internal/risk"
)

// Tester projects portfolio reserves under a scenario catalog.
type Tester struct {
	scenarios []domain.StressScenario
}

// NewTester creates a tester with the default six-scenario catalog.
func NewTester() *Tester {
	return &Tester{scenarios: domain.DefaultStressScenarios()}
}

// WithScenarios replaces the scenario catalog.
func (t *Tester) WithScenarios(scenarios []domain.StressScenario) *Tester {
	t.scenarios = scenarios
	return t
}

// Scenarios returns the configured catalog.
func (t *Tester) Scenarios() []domain.StressScenario {
	return t.scenarios
}

// Run applies every scenario to the base totals. Results follow catalog order;
// no scenario depends on another.
func (t *Tester) Run(base domain.PortfolioTotals) []domain.StressResult {
	results := make([]domain.StressResult, len(t.scenarios))
	for i, s := range t.scenarios {
		results[i] = Apply(base, s)
	}
	return results
}

// Apply projects one scenario. Required reserves use the premium-based
// method only, unlike the per-category engine's four-way maximum.
func Apply(base domain.PortfolioTotals, s domain.StressScenario) domain.StressResult {
	claims := base.TotalClaims * s.ClaimsMultiplier
	premiums := base.TotalPremiums * s.PremiumMultiplier

	required := reserve.PremiumBased(premiums)
	exposure := risk.ClaimsAmount(claims)
	adequacy := required - exposure

	status := domain.StatusInadequate
	if adequacy >= 0 {
		status = domain.StatusAdequate
	}

	return domain.StressResult{
		Scenario:          s,
		StressedPremiums:  premiums,
		StressedClaims:    claims,
		StressedLossRatio: domain.NewRatio(exposure, premiums),
		RequiredReserves:  required,
		ActualExposure:    exposure,
		CapitalAdequacy:   adequacy,
		CapitalRatio:      domain.NewRatio(required, exposure),
		Status:            status,
	}
}

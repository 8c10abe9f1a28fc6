package domain

// StressScenario represents stress test parameters.
type StressScenario struct {
	Name              string
	ClaimsMultiplier  float64
	PremiumMultiplier float64
	Description       string
}

// Scenario name constants
const (
	ScenarioBaseCase          = "Base Case"
	ScenarioMildStress        = "Mild Stress"
	ScenarioModerateStress    = "Moderate Stress"
	ScenarioSevereStress      = "Severe Stress"
	ScenarioEconomicDownturn  = "Economic Downturn"
	ScenarioCatastrophicEvent = "Catastrophic Event"
)

// Predefined stress scenarios
var (
	StressBaseCase = StressScenario{
		Name:              ScenarioBaseCase,
		ClaimsMultiplier:  1.0,
		PremiumMultiplier: 1.0,
		Description:       "Current baseline scenario",
	}

	StressMild = StressScenario{
		Name:              ScenarioMildStress,
		ClaimsMultiplier:  1.2,
		PremiumMultiplier: 1.0,
		Description:       "20% increase in claims frequency",
	}

	StressModerate = StressScenario{
		Name:              ScenarioModerateStress,
		ClaimsMultiplier:  1.5,
		PremiumMultiplier: 1.0,
		Description:       "50% increase in claims frequency",
	}

	StressSevere = StressScenario{
		Name:              ScenarioSevereStress,
		ClaimsMultiplier:  2.0,
		PremiumMultiplier: 1.0,
		Description:       "100% increase in claims frequency",
	}

	StressEconomicDownturn = StressScenario{
		Name:              ScenarioEconomicDownturn,
		ClaimsMultiplier:  1.8,
		PremiumMultiplier: 0.9,
		Description:       "Economic downturn with reduced premiums",
	}

	StressCatastrophic = StressScenario{
		Name:              ScenarioCatastrophicEvent,
		ClaimsMultiplier:  3.0,
		PremiumMultiplier: 1.0,
		Description:       "Catastrophic event scenario",
	}
)

// DefaultStressScenarios returns the fixed six-scenario catalog in report order.
func DefaultStressScenarios() []StressScenario {
	return []StressScenario{
		StressBaseCase,
		StressMild,
		StressModerate,
		StressSevere,
		StressEconomicDownturn,
		StressCatastrophic,
	}
}

// PortfolioTotals are the base metrics a stress test starts from.
type PortfolioTotals struct {
	TotalPremiums float64
	TotalClaims   float64
	TotalPolicies int
	AvgLossRatio  float64
}

// AdequacyStatus labels the outcome of a stress scenario.
type AdequacyStatus string

const (
	StatusAdequate   AdequacyStatus = "Adequate"
	StatusInadequate AdequacyStatus = "Inadequate"
)

// StressResult is the projection of one scenario.
type StressResult struct {
	Scenario StressScenario

	StressedPremiums  float64
	StressedClaims    float64
	StressedLossRatio Ratio // stressed_claims*1000 / stressed_premiums
	RequiredReserves  float64
	ActualExposure    float64
	CapitalAdequacy   float64
	CapitalRatio      Ratio // required / exposure
	Status            AdequacyStatus
}

package domain

import (
	"math"
	"strconv"
)

// Ratio is a quotient whose denominator may be zero.
// Defined=false means "no exposure": rendered as n/a, compared as +Inf.
type Ratio struct {
	Value   float64
	Defined bool
}

// NewRatio divides num by den, returning an undefined ratio when den is 0.
func NewRatio(num, den float64) Ratio {
	if den == 0 {
		return Ratio{}
	}
	return Ratio{Value: num / den, Defined: true}
}

// Less reports whether the ratio is strictly below x. Undefined is never below.
func (r Ratio) Less(x float64) bool {
	return r.Defined && r.Value < x
}

// Float returns the value, +Inf when undefined.
func (r Ratio) Float() float64 {
	if !r.Defined {
		return math.Inf(1)
	}
	return r.Value
}

// Ptr returns the value as a nullable pointer for storage.
func (r Ratio) Ptr() *float64 {
	if !r.Defined {
		return nil
	}
	v := r.Value
	return &v
}

// String formats the ratio with 4 decimals, or "n/a".
func (r Ratio) String() string {
	if !r.Defined {
		return "n/a"
	}
	return strconv.FormatFloat(r.Value, 'f', 4, 64)
}

// ReserveMethod names one of the reserve methodologies.
type ReserveMethod string

// Reserve methodologies, in tie-break order.
const (
	MethodPremiumBased ReserveMethod = "premium_based"
	MethodClaimsBased  ReserveMethod = "claims_based"
	MethodRiskAdjusted ReserveMethod = "risk_adjusted"
	MethodIBNR         ReserveMethod = "ibnr"
)

// ReserveRequirement is the reserve analysis for one risk category.
type ReserveRequirement struct {
	Category RiskCategory

	PolicyCount   int
	TotalPremiums float64
	AvgPremium    float64
	TotalClaims   float64
	AvgLossRatio  float64
	AvgDuration   float64

	PremiumBased float64
	ClaimsBased  float64
	RiskAdjusted float64
	IBNR         float64

	TotalRequired  float64 // max of the four methods
	BindingMethod  ReserveMethod
	ActualExposure float64 // total_claims * 1000
	Adequacy       float64 // required - exposure
	ReserveRatio   Ratio   // required / exposure
}

// CapitalAdequacy is the portfolio roll-up of all reserve requirements.
type CapitalAdequacy struct {
	TotalRequired        float64
	TotalExposure        float64
	TotalPremiums        float64
	OverallAdequacy      float64
	ReserveCoverageRatio Ratio // required / exposure
	PremiumCoverageRatio Ratio // required / premiums
}

// Priority ranks a recommendation.
type Priority string

// Recommendation priorities.
const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// PortfolioScope is the scope of portfolio-wide recommendations.
const PortfolioScope = "Overall Portfolio"

// Recommendation is one reserve action item.
type Recommendation struct {
	Scope           string // risk category or PortfolioScope
	Issue           string
	CurrentAdequacy float64
	Action          string
	Priority        Priority
}

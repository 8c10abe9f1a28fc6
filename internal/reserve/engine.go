package reserve

import (
	"errors"
	"fmt"
	"sort"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/risk"
)

// Reserve rates
const (
	PremiumReserveRate    = 0.15 // premium-based reserve, share of premiums
	ClaimsReserveMultiple = 3.0  // claims-based reserve, multiple of claims amount
	IBNRRate              = 0.05 // incurred-but-not-reported buffer, share of premiums
)

// RiskMultipliers are the risk-adjusted reserve rates per category.
var RiskMultipliers = map[domain.RiskCategory]float64{
	domain.RiskLow:      0.10,
	domain.RiskMedium:   0.15,
	domain.RiskHigh:     0.25,
	domain.RiskVeryHigh: 0.35,
}

var (
	// ErrUnknownCategory is returned when an aggregate key is not a known risk category.
	ErrUnknownCategory = errors.New("unknown risk category")

	// ErrNotRiskDimension is returned when aggregates are not keyed by risk category alone.
	ErrNotRiskDimension = errors.New("aggregate is not keyed by risk category")
)

// PremiumBased is the premium-based reserve. Shared with the stress tester.
func PremiumBased(totalPremiums float64) float64 {
	return totalPremiums * PremiumReserveRate
}

// Engine computes per-category reserve requirements.
type Engine struct{}

// NewEngine creates a new reserve engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Compute produces one requirement per risk-category aggregate, ordered by
// severity. Categories absent from the input produce no row.
func (e *Engine) Compute(aggs []domain.CategoryAggregate) ([]domain.ReserveRequirement, error) {
	reqs := make([]domain.ReserveRequirement, 0, len(aggs))
	for i := range aggs {
		agg := &aggs[i]
		if len(agg.Key) != 1 {
			return nil, fmt.Errorf("%w: dimension %q has %d keys", ErrNotRiskDimension, agg.Dimension, len(agg.Key))
		}
		category, ok := domain.ParseRiskCategory(agg.Key[0])
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, agg.Key[0])
		}
		reqs = append(reqs, e.ComputeCategory(category, agg))
	}

	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].Category.Rank() < reqs[j].Category.Rank()
	})
	return reqs, nil
}

// ComputeCategory applies the four methodologies to one category aggregate.
// The category must be known.
func (e *Engine) ComputeCategory(category domain.RiskCategory, agg *domain.CategoryAggregate) domain.ReserveRequirement {
	premiums := agg.TotalPremiums()
	claims := agg.TotalClaims()

	r := domain.ReserveRequirement{
		Category:      category,
		PolicyCount:   agg.PolicyCount,
		TotalPremiums: premiums,
		AvgPremium:    agg.AvgPremium(),
		TotalClaims:   claims,
		AvgLossRatio:  agg.AvgLossRatio(),
		AvgDuration:   agg.AvgDuration(),

		PremiumBased: PremiumBased(premiums),
		ClaimsBased:  risk.ClaimsAmount(claims) * ClaimsReserveMultiple,
		RiskAdjusted: premiums * RiskMultipliers[category],
		IBNR:         premiums * IBNRRate,
	}

	r.TotalRequired, r.BindingMethod = selectRequired(r)
	r.ActualExposure = risk.ClaimsAmount(claims)
	r.Adequacy = r.TotalRequired - r.ActualExposure
	r.ReserveRatio = domain.NewRatio(r.TotalRequired, r.ActualExposure)
	return r
}

// selectRequired returns the maximum candidate and the method that produced it.
// Ties resolve to the earlier method.
func selectRequired(r domain.ReserveRequirement) (float64, domain.ReserveMethod) {
	candidates := []struct {
		method domain.ReserveMethod
		amount float64
	}{
		{domain.MethodPremiumBased, r.PremiumBased},
		{domain.MethodClaimsBased, r.ClaimsBased},
		{domain.MethodRiskAdjusted, r.RiskAdjusted},
		{domain.MethodIBNR, r.IBNR},
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.amount > best.amount {
			best = c
		}
	}
	return best.amount, best.method
}

// CapitalAdequacy rolls the requirements up to portfolio level.
func CapitalAdequacy(reqs []domain.ReserveRequirement) domain.CapitalAdequacy {
	var ca domain.CapitalAdequacy
	for _, r := range reqs {
		ca.TotalRequired += r.TotalRequired
		ca.TotalExposure += r.ActualExposure
		ca.TotalPremiums += r.TotalPremiums
		ca.OverallAdequacy += r.Adequacy
	}
	ca.ReserveCoverageRatio = domain.NewRatio(ca.TotalRequired, ca.TotalExposure)
	ca.PremiumCoverageRatio = domain.NewRatio(ca.TotalRequired, ca.TotalPremiums)
	return ca
}

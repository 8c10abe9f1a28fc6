package reserve

import (
	"fmt"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/money"
)

// Recommendation thresholds
const (
	criticalRatio = 0.5 // inadequate with reserve ratio below this is High priority
	bufferRatio   = 1.2 // adequate with reserve ratio below this has a thin buffer
)

// Recommendation issues
const (
	IssueInadequate         = "Inadequate Reserves"
	IssueLowBuffer          = "Low Reserve Buffer"
	IssueAdequate           = "Adequate Reserves"
	IssuePortfolioShortfall = "Portfolio-wide Reserve Shortfall"
)

// Advisor turns reserve requirements into action items.
type Advisor struct{}

// NewAdvisor creates a new reserve advisor.
func NewAdvisor() *Advisor {
	return &Advisor{}
}

// Evaluate produces one recommendation per requirement plus a Critical
// portfolio item when total adequacy is negative.
func (a *Advisor) Evaluate(reqs []domain.ReserveRequirement) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, len(reqs)+1)
	total := 0.0
	for _, r := range reqs {
		recs = append(recs, a.evaluateCategory(r))
		total += r.Adequacy
	}

	if total < 0 {
		recs = append(recs, domain.Recommendation{
			Scope:           domain.PortfolioScope,
			Issue:           IssuePortfolioShortfall,
			CurrentAdequacy: total,
			Action:          "Implement immediate reserve increase across all categories",
			Priority:        domain.PriorityCritical,
		})
	}
	return recs
}

// evaluateCategory classifies one category. An undefined reserve ratio
// (no exposure) compares as +Inf.
func (a *Advisor) evaluateCategory(r domain.ReserveRequirement) domain.Recommendation {
	rec := domain.Recommendation{
		Scope:           string(r.Category),
		CurrentAdequacy: r.Adequacy,
	}

	switch {
	case r.Adequacy < 0:
		rec.Issue = IssueInadequate
		rec.Action = fmt.Sprintf("Increase reserves by %s to meet minimum requirements", money.Format(-r.Adequacy))
		rec.Priority = domain.PriorityMedium
		if r.ReserveRatio.Less(criticalRatio) {
			rec.Priority = domain.PriorityHigh
		}
	case r.ReserveRatio.Less(bufferRatio):
		rec.Issue = IssueLowBuffer
		rec.Action = "Consider increasing reserves by 20% to improve buffer"
		rec.Priority = domain.PriorityMedium
	default:
		rec.Issue = IssueAdequate
		rec.Action = "Maintain current reserve levels"
		rec.Priority = domain.PriorityLow
	}
	return rec
}

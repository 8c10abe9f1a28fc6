package reporting

import (
	"time"

	"policy-reserve-lab/internal/domain"
)

// Generator assembles reports from computed run results.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report. Input slices are shared, not copied.
func (g *Generator) Generate(in Input) *Report {
	return &Report{
		GeneratedAt:      g.now(),
		Run:              in.Run,
		DataSummary:      generateDataSummary(in.Run.Source, in.Policies, in.LoadStats),
		DataQuality:      in.DataQuality,
		KPIs:             in.KPIs,
		RiskDistribution: in.Distribution,
		Aggregates:       in.Aggregates,
		Reserves:         in.Reserves,
		Capital:          in.Capital,
		Recommendations:  in.Recommendations,
		Stress:           in.Stress,
	}
}

// generateDataSummary computes totals and the start date range.
func generateDataSummary(source string, policies []domain.EnrichedPolicy, stats *domain.LoadStats) DataSummary {
	s := DataSummary{
		Source:        source,
		TotalPolicies: len(policies),
		ImputedCells:  stats.TotalImputed(),
	}

	for i := range policies {
		p := &policies[i]
		s.TotalPremiums += p.PremiumAmount
		s.TotalClaims += p.PreviousClaims

		if !p.HasStartDate() {
			s.UnknownStartDates++
			continue
		}
		if s.StartDateMin.IsZero() || p.StartDate.Before(s.StartDateMin) {
			s.StartDateMin = p.StartDate
		}
		if p.StartDate.After(s.StartDateMax) {
			s.StartDateMax = p.StartDate
		}
	}

	return s
}

// findTable returns the aggregate table of a dimension, nil when absent.
func findTable(tables []domain.AggregateTable, dimension string) *domain.AggregateTable {
	for i := range tables {
		if tables[i].Dimension == dimension {
			return &tables[i]
		}
	}
	return nil
}

package risk

import (
	"math"
	"time"

	"policy-reserve-lab/internal/domain"
)

// DaysPerYear converts policy age in days to years.
const DaysPerYear = 365.25

// band is a right-closed interval (lower, upper] with a label.
type band struct {
	upper float64
	label string
}

// Age bands, right-closed, lower bound 0, upper bound 100.
var ageBands = []band{
	{25, "18-25"},
	{35, "26-35"},
	{45, "36-45"},
	{55, "46-55"},
	{65, "56-65"},
	{100, "65+"},
}

// Income bands, right-closed, lower bound 0, last band unbounded.
var incomeBands = []band{
	{30000, "Low"},
	{60000, "Lower-Mid"},
	{100000, "Mid"},
	{200000, "Upper-Mid"},
	{math.Inf(1), "High"},
}

// AgeGroupLabels lists age group labels in band order.
func AgeGroupLabels() []string { return labels(ageBands) }

// IncomeGroupLabels lists income group labels in band order.
func IncomeGroupLabels() []string { return labels(incomeBands) }

// AgeGroup returns the age band label, empty when age is outside (0, 100].
func AgeGroup(age float64) string {
	return lookupBand(ageBands, age)
}

// IncomeGroup returns the income band label, empty when income <= 0.
func IncomeGroup(income float64) string {
	return lookupBand(incomeBands, income)
}

func lookupBand(bands []band, v float64) string {
	if v <= 0 || math.IsNaN(v) {
		return ""
	}
	for _, b := range bands {
		if v <= b.upper {
			return b.label
		}
	}
	return ""
}

func labels(bands []band) []string {
	out := make([]string, len(bands))
	for i, b := range bands {
		out[i] = b.label
	}
	return out
}

// Enricher maps policy records to enriched policies.
// The reference date is injected so output is reproducible.
type Enricher struct {
	asOf time.Time
}

// NewEnricher creates an enricher that measures policy duration up to asOf.
func NewEnricher(asOf time.Time) *Enricher {
	return &Enricher{asOf: asOf}
}

// AsOf returns the reference date.
func (e *Enricher) AsOf() time.Time {
	return e.asOf
}

// Enrich scores one record and derives its extra columns.
func (e *Enricher) Enrich(p *domain.PolicyRecord) domain.EnrichedPolicy {
	out := domain.EnrichedPolicy{
		PolicyRecord:  *p,
		Risk:          Score(p),
		LossRatio:     LossRatio(p.PreviousClaims, p.PremiumAmount),
		CustomerValue: p.PremiumAmount * p.InsuranceDuration,
		AgeGroup:      AgeGroup(p.Age),
		IncomeGroup:   IncomeGroup(p.AnnualIncome),
	}
	if p.InsuranceDuration != 0 {
		out.PremiumPerYear = p.PremiumAmount / p.InsuranceDuration
	}
	if p.HasStartDate() {
		out.PolicyDurationYears = e.durationYears(p.StartDate)
	}
	return out
}

// EnrichAll maps every record. The input slice is not modified.
func (e *Enricher) EnrichAll(records []domain.PolicyRecord) []domain.EnrichedPolicy {
	out := make([]domain.EnrichedPolicy, len(records))
	for i := range records {
		out[i] = e.Enrich(&records[i])
	}
	return out
}

// durationYears counts whole elapsed days (floored) and converts to years.
func (e *Enricher) durationYears(start time.Time) float64 {
	days := math.Floor(e.asOf.Sub(start).Hours() / 24)
	return days / DaysPerYear
}

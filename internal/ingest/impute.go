package ingest

import (
	"sort"
	"time"

	"policy-reserve-lab/internal/domain"
)

// RawPolicy is one source row before imputation. Nil pointers are missing cells.
type RawPolicy struct {
	PolicyID string

	Age                *float64
	AnnualIncome       *float64
	NumberOfDependents *float64
	HealthScore        *float64
	PreviousClaims     *float64
	CreditScore        *float64
	PremiumAmount      *float64
	InsuranceDuration  *float64

	Gender            string
	MaritalStatus     string
	Occupation        string
	EducationLevel    string
	SmokingStatus     string
	ExerciseFrequency string
	PolicyType        string
	Location          string
	CustomerFeedback  *string

	StartDate time.Time
}

// fillRule describes how one column is imputed.
type fillRule struct {
	column string
	get    func(r *RawPolicy) *float64
	set    func(p *domain.PolicyRecord, v float64)
	median bool // false fills with zero
}

var fillRules = []fillRule{
	{ColAge, func(r *RawPolicy) *float64 { return r.Age }, func(p *domain.PolicyRecord, v float64) { p.Age = v }, true},
	{ColAnnualIncome, func(r *RawPolicy) *float64 { return r.AnnualIncome }, func(p *domain.PolicyRecord, v float64) { p.AnnualIncome = v }, true},
	{ColNumberOfDependents, func(r *RawPolicy) *float64 { return r.NumberOfDependents }, func(p *domain.PolicyRecord, v float64) { p.NumberOfDependents = v }, false},
	{ColHealthScore, func(r *RawPolicy) *float64 { return r.HealthScore }, func(p *domain.PolicyRecord, v float64) { p.HealthScore = v }, true},
	{ColPreviousClaims, func(r *RawPolicy) *float64 { return r.PreviousClaims }, func(p *domain.PolicyRecord, v float64) { p.PreviousClaims = v }, false},
	{ColCreditScore, func(r *RawPolicy) *float64 { return r.CreditScore }, func(p *domain.PolicyRecord, v float64) { p.CreditScore = v }, true},
	{ColPremiumAmount, func(r *RawPolicy) *float64 { return r.PremiumAmount }, func(p *domain.PolicyRecord, v float64) { p.PremiumAmount = v }, false},
	{ColInsuranceDuration, func(r *RawPolicy) *float64 { return r.InsuranceDuration }, func(p *domain.PolicyRecord, v float64) { p.InsuranceDuration = v }, false},
}

// ImputableColumns lists every column Impute may fill, in fill order.
func ImputableColumns() []string {
	cols := make([]string, 0, len(fillRules)+1)
	for _, rule := range fillRules {
		cols = append(cols, rule.column)
	}
	return append(cols, ColCustomerFeedback)
}

// Impute fills missing cells and returns clean records with load stats.
// Medians are taken over the present values of the whole table; a column
// with no present values falls back to 0.
func Impute(raws []RawPolicy) ([]domain.PolicyRecord, *domain.LoadStats) {
	stats := &domain.LoadStats{
		Rows:    len(raws),
		Imputed: make(map[string]int),
	}

	fills := make([]float64, len(fillRules))
	for i, rule := range fillRules {
		if rule.median {
			fills[i] = columnMedian(raws, rule.get)
		}
	}

	out := make([]domain.PolicyRecord, len(raws))
	for i := range raws {
		r := &raws[i]
		p := domain.PolicyRecord{
			PolicyID:          r.PolicyID,
			Gender:            r.Gender,
			MaritalStatus:     r.MaritalStatus,
			Occupation:        r.Occupation,
			EducationLevel:    r.EducationLevel,
			SmokingStatus:     r.SmokingStatus,
			ExerciseFrequency: r.ExerciseFrequency,
			PolicyType:        r.PolicyType,
			Location:          r.Location,
			StartDate:         r.StartDate,
		}

		for j, rule := range fillRules {
			if v := rule.get(r); v != nil {
				rule.set(&p, *v)
				continue
			}
			rule.set(&p, fills[j])
			stats.Imputed[rule.column]++
		}

		if r.CustomerFeedback != nil {
			p.CustomerFeedback = *r.CustomerFeedback
		} else {
			p.CustomerFeedback = domain.FeedbackAverage
			stats.Imputed[ColCustomerFeedback]++
		}

		if p.PremiumAmount <= 0 {
			stats.NonPositivePremium++
		}
		out[i] = p
	}

	return out, stats
}

// columnMedian returns the median of present values, 0 when none are present.
func columnMedian(raws []RawPolicy, get func(r *RawPolicy) *float64) float64 {
	var values []float64
	for i := range raws {
		if v := get(&raws[i]); v != nil {
			values = append(values, *v)
		}
	}
	n := len(values)
	if n == 0 {
		return 0
	}
	sort.Float64s(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

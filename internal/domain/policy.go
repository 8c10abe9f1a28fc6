package domain

import "time"

// PolicyRecord represents one row of the policy table after imputation.
// Read once, enriched, never mutated afterwards.
type PolicyRecord struct {
	PolicyID string // optional, empty when the source has no id column

	// Numeric
	Age                float64
	AnnualIncome       float64
	NumberOfDependents float64
	HealthScore        float64
	PreviousClaims     float64
	CreditScore        float64

	// Categorical
	Gender            string
	MaritalStatus     string
	Occupation        string
	EducationLevel    string
	SmokingStatus     string // "Yes" | "No"
	ExerciseFrequency string
	PolicyType        string
	Location          string
	CustomerFeedback  string

	// Monetary
	PremiumAmount     float64
	InsuranceDuration float64 // years

	StartDate time.Time // zero when unknown
}

// HasStartDate reports whether the start date is known.
func (p *PolicyRecord) HasStartDate() bool {
	return !p.StartDate.IsZero()
}

// Smoking status values
const (
	SmokerYes = "Yes"
	SmokerNo  = "No"
)

// ExerciseRarely is the only exercise frequency that carries risk weight.
const ExerciseRarely = "Rarely"

// Customer feedback values counted as satisfied.
const (
	FeedbackGood      = "Good"
	FeedbackExcellent = "Excellent"
	FeedbackAverage   = "Average"
)

// EnrichedPolicy is a PolicyRecord plus its risk assessment and derived columns.
type EnrichedPolicy struct {
	PolicyRecord
	Risk RiskAssessment

	LossRatio           float64 // previous_claims * 1000 / premium, 0 when premium <= 0
	PremiumPerYear      float64 // premium / insurance_duration, 0 when duration is 0
	CustomerValue       float64 // premium * insurance_duration
	PolicyDurationYears float64 // days since start / 365.25, 0 when start unknown

	AgeGroup    string // empty when age is outside the banded range
	IncomeGroup string // empty when income <= 0
}

// StartYear returns the start year, ok=false when the start date is unknown.
func (p *EnrichedPolicy) StartYear() (int, bool) {
	if !p.HasStartDate() {
		return 0, false
	}
	return p.StartDate.Year(), true
}

// StartMonth returns the start month (1-12), ok=false when unknown.
func (p *EnrichedPolicy) StartMonth() (int, bool) {
	if !p.HasStartDate() {
		return 0, false
	}
	return int(p.StartDate.Month()), true
}

// StartQuarter returns the start quarter (1-4), ok=false when unknown.
func (p *EnrichedPolicy) StartQuarter() (int, bool) {
	m, ok := p.StartMonth()
	if !ok {
		return 0, false
	}
	return (m-1)/3 + 1, true
}

// LoadStats describes what a policy source did while loading.
type LoadStats struct {
	Rows               int
	Imputed            map[string]int // column name -> cells filled
	NonPositivePremium int
}

// TotalImputed returns the number of imputed cells across all columns.
func (s *LoadStats) TotalImputed() int {
	if s == nil {
		return 0
	}
	total := 0
	for _, n := range s.Imputed {
		total += n
	}
	return total
}

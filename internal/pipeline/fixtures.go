package pipeline

import (
	"time"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/storage/memory"
)

// FixtureSourceName names the built-in fixture source.
const FixtureSourceName = "fixtures"

// fixtureRow holds the fields that vary between fixture policies.
type fixtureRow struct {
	id         string
	age        float64
	income     float64
	health     float64
	claims     float64
	credit     float64
	smoker     string
	exercise   string
	policyType string
	location   string
	feedback   string
	premium    float64
	duration   float64
	start      string // empty for unknown
}

// Score buckets by construction: rows 1-3 Low, 4-6 Medium, 7-9 High, 10-12 Very High.
var fixtureRows = []fixtureRow{
	{"POL-0001", 42, 85000, 48, 0, 720, domain.SmokerNo, "Weekly", "Basic", "Urban", "Good", 1200, 5, "2021-03-15"},
	{"POL-0002", 50, 120000, 55, 0, 780, domain.SmokerNo, "Daily", "Premium", "Suburban", "Excellent", 2400, 8, "2019-06-01"},
	{"POL-0003", 38, 64000, 41, 1, 690, domain.SmokerNo, "Monthly", "Comprehensive", "Rural", "Average", 950, 3, "2022-01-10"},
	{"POL-0004", 30, 52000, 35, 1, 700, domain.SmokerNo, "Weekly", "Basic", "Urban", "Average", 800, 2, "2022-09-20"},
	{"POL-0005", 45, 71000, 25, 0, 560, domain.SmokerNo, "Rarely", "Comprehensive", "Suburban", "Good", 1500, 4, "2020-11-05"},
	{"POL-0006", 60, 98000, 38, 2, 610, domain.SmokerNo, "Monthly", "Premium", "Rural", "Poor", 2100, 6, ""},
	{"POL-0007", 70, 43000, 30, 1, 600, domain.SmokerNo, "Weekly", "Basic", "Rural", "Poor", 1100, 10, "2016-04-12"},
	{"POL-0008", 28, 39000, 18, 2, 640, domain.SmokerNo, "Rarely", "Comprehensive", "Urban", "Average", 700, 1, "2023-07-01"},
	{"POL-0009", 55, 150000, 45, 3, 480, domain.SmokerNo, "Daily", "Premium", "Suburban", "Good", 3000, 7, "2018-02-28"},
	{"POL-0010", 22, 21000, 15, 3, 480, domain.SmokerYes, "Rarely", "Basic", "Urban", "Poor", 600, 1, "2023-12-01"},
	{"POL-0011", 67, 33000, 22, 4, 590, domain.SmokerYes, "Monthly", "Comprehensive", "Rural", "Average", 0, 2, "2021-08-19"},
	{"POL-0012", 33, 58000, 12, 5, 450, domain.SmokerYes, "Rarely", "Premium", "Suburban", "Poor", 1800, 3, "2020-05-30"},
}

// FixturePolicies returns a small deterministic portfolio covering every risk
// category, one unknown start date and one zero premium.
func FixturePolicies() []domain.PolicyRecord {
	out := make([]domain.PolicyRecord, len(fixtureRows))
	for i, r := range fixtureRows {
		out[i] = domain.PolicyRecord{
			PolicyID:           r.id,
			Age:                r.age,
			AnnualIncome:       r.income,
			NumberOfDependents: float64(i % 4),
			HealthScore:        r.health,
			PreviousClaims:     r.claims,
			CreditScore:        r.credit,
			Gender:             []string{"Male", "Female"}[i%2],
			MaritalStatus:      []string{"Married", "Single", "Divorced"}[i%3],
			Occupation:         []string{"Employed", "Self-Employed", "Unemployed"}[i%3],
			EducationLevel:     []string{"Bachelor's", "Master's", "High School", "PhD"}[i%4],
			SmokingStatus:      r.smoker,
			ExerciseFrequency:  r.exercise,
			PolicyType:         r.policyType,
			Location:           r.location,
			CustomerFeedback:   r.feedback,
			PremiumAmount:      r.premium,
			InsuranceDuration:  r.duration,
			StartDate:          fixtureDate(r.start),
		}
	}
	return out
}

// NewFixtureSource returns an in-memory source over FixturePolicies.
func NewFixtureSource() *memory.PolicySource {
	return memory.NewPolicySource(FixtureSourceName, FixturePolicies())
}

func fixtureDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic("invalid fixture date " + s)
	}
	return t
}

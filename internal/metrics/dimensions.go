package metrics

import (
	"strconv"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/risk"
)

// KeyField maps a policy to one grouping key value.
// ok=false excludes the policy from every dimension using this field.
type KeyField struct {
	Name  string
	Value func(p *domain.EnrichedPolicy) (string, bool)

	// Rank orders key values for presentation. nil sorts lexically.
	Rank func(v string) int
}

// Dimension is a named list of key fields.
type Dimension struct {
	Name string
	Keys []KeyField
}

// KeyNames returns the key field names in order.
func (d Dimension) KeyNames() []string {
	names := make([]string, len(d.Keys))
	for i, k := range d.Keys {
		names[i] = k.Name
	}
	return names
}

// Key fields
var (
	KeyRiskCategory = KeyField{
		Name: "risk_category",
		Value: func(p *domain.EnrichedPolicy) (string, bool) {
			return string(p.Risk.Category), p.Risk.Category != ""
		},
		Rank: func(v string) int { return domain.RiskCategory(v).Rank() },
	}

	KeyPolicyType = KeyField{
		Name:  "policy_type",
		Value: nonEmpty(func(p *domain.EnrichedPolicy) string { return p.PolicyType }),
	}

	KeyLocation = KeyField{
		Name:  "location",
		Value: nonEmpty(func(p *domain.EnrichedPolicy) string { return p.Location }),
	}

	KeyGender = KeyField{
		Name:  "gender",
		Value: nonEmpty(func(p *domain.EnrichedPolicy) string { return p.Gender }),
	}

	KeyAgeGroup = KeyField{
		Name:  "age_group",
		Value: nonEmpty(func(p *domain.EnrichedPolicy) string { return p.AgeGroup }),
		Rank:  labelRank(risk.AgeGroupLabels()),
	}

	KeyIncomeGroup = KeyField{
		Name:  "income_group",
		Value: nonEmpty(func(p *domain.EnrichedPolicy) string { return p.IncomeGroup }),
		Rank:  labelRank(risk.IncomeGroupLabels()),
	}

	KeyStartYear = KeyField{
		Name:  "year",
		Value: intKey((*domain.EnrichedPolicy).StartYear),
		Rank:  numericRank,
	}

	KeyStartMonth = KeyField{
		Name:  "month",
		Value: intKey((*domain.EnrichedPolicy).StartMonth),
		Rank:  numericRank,
	}
)

// Dimension names
const (
	DimRiskCategory     = "risk_category"
	DimPolicyType       = "policy_type"
	DimLocation         = "location"
	DimAgeGroup         = "age_group"
	DimIncomeGroup      = "income_group"
	DimPolicySummary    = "policy_summary"
	DimMonthlyTrends    = "monthly_trends"
	DimDemographics     = "demographics"
	DimCustomerSegments = "customer_segments"
)

// StandardDimensions returns every named dimension in report order.
func StandardDimensions() []Dimension {
	return []Dimension{
		{Name: DimRiskCategory, Keys: []KeyField{KeyRiskCategory}},
		{Name: DimPolicyType, Keys: []KeyField{KeyPolicyType}},
		{Name: DimLocation, Keys: []KeyField{KeyLocation}},
		{Name: DimAgeGroup, Keys: []KeyField{KeyAgeGroup}},
		{Name: DimIncomeGroup, Keys: []KeyField{KeyIncomeGroup}},
		{Name: DimPolicySummary, Keys: []KeyField{KeyPolicyType, KeyRiskCategory}},
		{Name: DimMonthlyTrends, Keys: []KeyField{KeyStartYear, KeyStartMonth}},
		{Name: DimDemographics, Keys: []KeyField{KeyAgeGroup, KeyGender, KeyLocation}},
		{Name: DimCustomerSegments, Keys: []KeyField{KeyIncomeGroup, KeyRiskCategory}},
	}
}

// DimensionByName looks up a standard dimension.
func DimensionByName(name string) (Dimension, bool) {
	for _, d := range StandardDimensions() {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

func nonEmpty(get func(p *domain.EnrichedPolicy) string) func(p *domain.EnrichedPolicy) (string, bool) {
	return func(p *domain.EnrichedPolicy) (string, bool) {
		v := get(p)
		return v, v != ""
	}
}

func intKey(get func(p *domain.EnrichedPolicy) (int, bool)) func(p *domain.EnrichedPolicy) (string, bool) {
	return func(p *domain.EnrichedPolicy) (string, bool) {
		v, ok := get(p)
		if !ok {
			return "", false
		}
		return strconv.Itoa(v), true
	}
}

func labelRank(labels []string) func(v string) int {
	return func(v string) int {
		for i, l := range labels {
			if l == v {
				return i
			}
		}
		return len(labels)
	}
}

func numericRank(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

package domain

// RiskCategory is the banded risk label derived from a risk score.
type RiskCategory string

// Risk categories in severity order.
const (
	RiskLow      RiskCategory = "Low"
	RiskMedium   RiskCategory = "Medium"
	RiskHigh     RiskCategory = "High"
	RiskVeryHigh RiskCategory = "Very High"
)

// RiskCategories lists all categories, least severe first.
var RiskCategories = []RiskCategory{RiskLow, RiskMedium, RiskHigh, RiskVeryHigh}

// Rank returns the severity position (0 = Low), -1 for unknown values.
func (c RiskCategory) Rank() int {
	for i, rc := range RiskCategories {
		if rc == c {
			return i
		}
	}
	return -1
}

// IsHighRisk reports whether the category counts towards the high-risk share.
func (c RiskCategory) IsHighRisk() bool {
	return c == RiskHigh || c == RiskVeryHigh
}

// ParseRiskCategory maps a label back to a known category.
func ParseRiskCategory(s string) (RiskCategory, bool) {
	c := RiskCategory(s)
	if c.Rank() < 0 {
		return "", false
	}
	return c, true
}

// RiskAssessment is the score and category of one policy.
type RiskAssessment struct {
	Score    int
	Category RiskCategory
}

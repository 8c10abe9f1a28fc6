package risk

import "policy-reserve-lab/internal/domain"

// AverageClaimCost is the fixed monetary value assigned to one previous claim.
// It turns claim counts into claim amounts for loss ratios and exposure.
const AverageClaimCost = 1000.0

// MaxScore is the highest score the additive rule can produce.
const MaxScore = 12

// Category upper bounds (inclusive).
const (
	lowMaxScore    = 2
	mediumMaxScore = 4
	highMaxScore   = 6
)

// Score applies the additive underwriting rule to one record.
// Total function: every field is assumed present after imputation.
func Score(p *domain.PolicyRecord) domain.RiskAssessment {
	score := ageScore(p.Age) +
		claimsScore(p.PreviousClaims) +
		healthScore(p.HealthScore) +
		creditScore(p.CreditScore)

	if p.SmokingStatus == domain.SmokerYes {
		score += 2
	}
	if p.ExerciseFrequency == domain.ExerciseRarely {
		score++
	}

	return domain.RiskAssessment{
		Score:    score,
		Category: Categorize(score),
	}
}

// Categorize maps a total score to its band.
func Categorize(score int) domain.RiskCategory {
	switch {
	case score <= lowMaxScore:
		return domain.RiskLow
	case score <= mediumMaxScore:
		return domain.RiskMedium
	case score <= highMaxScore:
		return domain.RiskHigh
	default:
		return domain.RiskVeryHigh
	}
}

func ageScore(age float64) int {
	switch {
	case age < 25 || age > 65:
		return 2
	case age <= 35:
		return 1
	default:
		return 0
	}
}

func claimsScore(claims float64) int {
	switch {
	case claims > 2:
		return 3
	case claims > 0:
		return 1
	default:
		return 0
	}
}

func healthScore(health float64) int {
	switch {
	case health < 20:
		return 2
	case health < 40:
		return 1
	default:
		return 0
	}
}

func creditScore(credit float64) int {
	switch {
	case credit < 500:
		return 2
	case credit < 650:
		return 1
	default:
		return 0
	}
}

// LossRatio estimates claims cost over premium.
// Returns 0 when premium is zero or negative.
func LossRatio(previousClaims, premium float64) float64 {
	if premium <= 0 {
		return 0
	}
	return previousClaims * AverageClaimCost / premium
}

// ClaimsAmount converts a claim count into a monetary amount.
func ClaimsAmount(claims float64) float64 {
	return claims * AverageClaimCost
}

package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"policy-reserve-lab/internal/domain"
)

// canonicalRow renders a policy as a pipe-separated string.
// Formula: id|age|income|dependents|health|claims|credit|gender|marital|
// occupation|education|smoking|exercise|type|location|feedback|premium|
// duration|start (RFC3339Nano, empty when unknown)
func canonicalRow(p *domain.PolicyRecord) string {
	start := ""
	if p.HasStartDate() {
		start = p.StartDate.UTC().Format(time.RFC3339Nano)
	}

	fields := []string{
		p.PolicyID,
		formatFloat(p.Age),
		formatFloat(p.AnnualIncome),
		formatFloat(p.NumberOfDependents),
		formatFloat(p.HealthScore),
		formatFloat(p.PreviousClaims),
		formatFloat(p.CreditScore),
		p.Gender,
		p.MaritalStatus,
		p.Occupation,
		p.EducationLevel,
		p.SmokingStatus,
		p.ExerciseFrequency,
		p.PolicyType,
		p.Location,
		p.CustomerFeedback,
		formatFloat(p.PremiumAmount),
		formatFloat(p.InsuranceDuration),
		start,
	}
	return strings.Join(fields, "|")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ComputeDataVersion computes a deterministic version of a policy table using SHA256.
// Formula: SHA256(row_0\nrow_1\n...) over canonical rows in table order.
// Returns hex-encoded hash (64 characters).
func ComputeDataVersion(records []domain.PolicyRecord) string {
	h := sha256.New()
	for i := range records {
		h.Write([]byte(canonicalRow(&records[i])))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ComputePolicyID derives a stable id for a policy that has none.
// Formula: first 16 hex characters of SHA256(canonical row).
func ComputePolicyID(p *domain.PolicyRecord) string {
	hash := sha256.Sum256([]byte(canonicalRow(p)))
	return hex.EncodeToString(hash[:])[:16]
}

package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// Source column headers.
const (
	ColID                 = "id"
	ColAge                = "Age"
	ColGender             = "Gender"
	ColAnnualIncome       = "Annual Income"
	ColMaritalStatus      = "Marital Status"
	ColNumberOfDependents = "Number of Dependents"
	ColEducationLevel     = "Education Level"
	ColOccupation         = "Occupation"
	ColHealthScore        = "Health Score"
	ColLocation           = "Location"
	ColPolicyType         = "Policy Type"
	ColPreviousClaims     = "Previous Claims"
	ColCreditScore        = "Credit Score"
	ColInsuranceDuration  = "Insurance Duration"
	ColPolicyStartDate    = "Policy Start Date"
	ColCustomerFeedback   = "Customer Feedback"
	ColSmokingStatus      = "Smoking Status"
	ColExerciseFrequency  = "Exercise Frequency"
	ColPremiumAmount      = "Premium Amount"
)

// RequiredColumns must all be present in the header. ColID is optional.
var RequiredColumns = []string{
	ColAge,
	ColGender,
	ColAnnualIncome,
	ColMaritalStatus,
	ColNumberOfDependents,
	ColEducationLevel,
	ColOccupation,
	ColHealthScore,
	ColLocation,
	ColPolicyType,
	ColPreviousClaims,
	ColCreditScore,
	ColInsuranceDuration,
	ColPolicyStartDate,
	ColCustomerFeedback,
	ColSmokingStatus,
	ColExerciseFrequency,
	ColPremiumAmount,
}

var (
	// ErrMissingColumns is returned before any row is read when the header
	// lacks required columns.
	ErrMissingColumns = errors.New("missing required columns")

	// ErrInvalidRow is returned when a cell cannot be parsed.
	ErrInvalidRow = errors.New("invalid policy row")
)

// headerIndex maps column name to position.
type headerIndex map[string]int

// indexHeader validates the header and reports every missing column at once.
func indexHeader(header []string) (headerIndex, error) {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return idx, nil
}

// cell returns the trimmed value of a column, empty when absent.
func (h headerIndex) cell(row []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

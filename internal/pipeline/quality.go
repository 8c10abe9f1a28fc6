package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/ingest"
	"policy-reserve-lab/internal/reporting"
)

// Default data quality thresholds.
const (
	DefaultMaxImputedShare      = 0.05
	DefaultMaxUnknownStartShare = 0.05

	// maxListedDuplicates caps the duplicate ids named in warnings.
	maxListedDuplicates = 10
)

// QualityCheck represents one data quality criterion.
type QualityCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// QualityResult contains every check plus warnings for failed ones.
type QualityResult struct {
	Checks   []QualityCheck
	AllPass  bool
	Warnings []string
}

// QualityChecker evaluates the loaded policy table. Failures are reported,
// never fatal.
type QualityChecker struct {
	maxImputedShare      float64
	maxUnknownStartShare float64
}

// NewQualityChecker creates a checker with default thresholds.
func NewQualityChecker() *QualityChecker {
	return &QualityChecker{
		maxImputedShare:      DefaultMaxImputedShare,
		maxUnknownStartShare: DefaultMaxUnknownStartShare,
	}
}

// WithThresholds overrides the imputed cell and unknown start date shares (0..1).
func (c *QualityChecker) WithThresholds(maxImputed, maxUnknownStart float64) *QualityChecker {
	c.maxImputedShare = maxImputed
	c.maxUnknownStartShare = maxUnknownStart
	return c
}

// Check runs all checks over enriched policies and the loader's stats.
func (c *QualityChecker) Check(policies []domain.EnrichedPolicy, stats *domain.LoadStats) *QualityResult {
	result := &QualityResult{
		Checks:  make([]QualityCheck, 0, 6),
		AllPass: true,
	}

	add := func(check QualityCheck, warnings ...string) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
			result.Warnings = append(result.Warnings, warnings...)
		}
	}

	// Check 1: Policies loaded > 0
	add(QualityCheck{
		Name:      "Policies loaded",
		Threshold: "> 0",
		Actual:    fmt.Sprintf("%d", len(policies)),
		Pass:      len(policies) > 0,
	}, "No policies were loaded")

	// Check 2: Duplicate policy ids == 0
	add(c.checkDuplicateIDs(policies))

	// Check 3: Non-positive premiums == 0
	add(c.checkNonPositivePremium(policies))

	// Check 4: Imputed cells within threshold
	imputed, imputedWarnings := c.checkImputed(len(policies), stats)
	add(imputed, imputedWarnings...)

	// Check 5: Unknown start dates within threshold
	add(c.checkUnknownStartDates(policies))

	// Check 6: Every risk category observed
	add(c.checkCategoriesObserved(policies))

	return result
}

// checkDuplicateIDs: policy ids are unique. Empty ids are ignored.
func (c *QualityChecker) checkDuplicateIDs(policies []domain.EnrichedPolicy) (QualityCheck, string) {
	seen := make(map[string]int, len(policies))
	for i := range policies {
		if id := policies[i].PolicyID; id != "" {
			seen[id]++
		}
	}

	var dups []string
	for id, n := range seen {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)

	warning := ""
	if len(dups) > 0 {
		listed := dups
		if len(listed) > maxListedDuplicates {
			listed = listed[:maxListedDuplicates]
		}
		warning = fmt.Sprintf("Duplicate policy ids: %s", strings.Join(listed, ", "))
		if len(dups) > len(listed) {
			warning += fmt.Sprintf(" (and %d more)", len(dups)-len(listed))
		}
	}

	return QualityCheck{
		Name:      "Duplicate policy ids",
		Threshold: "== 0",
		Actual:    fmt.Sprintf("%d", len(dups)),
		Pass:      len(dups) == 0,
	}, warning
}

// checkNonPositivePremium: these policies get a zero loss ratio.
func (c *QualityChecker) checkNonPositivePremium(policies []domain.EnrichedPolicy) (QualityCheck, string) {
	n := 0
	for i := range policies {
		if policies[i].PremiumAmount <= 0 {
			n++
		}
	}
	return QualityCheck{
		Name:      "Non-positive premiums",
		Threshold: "== 0",
		Actual:    fmt.Sprintf("%d", n),
		Pass:      n == 0,
	}, fmt.Sprintf("%d policies have zero or missing premium; their loss ratio is reported as 0", n)
}

// checkImputed: imputed cells as a share of all imputable cells.
func (c *QualityChecker) checkImputed(rows int, stats *domain.LoadStats) (QualityCheck, []string) {
	total := stats.TotalImputed()
	cells := rows * len(ingest.ImputableColumns())
	share := 0.0
	if cells > 0 {
		share = float64(total) / float64(cells)
	}

	var warnings []string
	if stats != nil {
		for _, col := range ingest.ImputableColumns() {
			if n := stats.Imputed[col]; n > 0 {
				warnings = append(warnings, fmt.Sprintf("%d cells imputed in %s", n, col))
			}
		}
	}

	return QualityCheck{
		Name:      "Imputed cells",
		Threshold: fmt.Sprintf("<= %.0f%%", c.maxImputedShare*100),
		Actual:    fmt.Sprintf("%.2f%% (%d)", share*100, total),
		Pass:      share <= c.maxImputedShare,
	}, warnings
}

// checkUnknownStartDates: policies without a start date have no duration or trend key.
func (c *QualityChecker) checkUnknownStartDates(policies []domain.EnrichedPolicy) (QualityCheck, string) {
	n := 0
	for i := range policies {
		if !policies[i].HasStartDate() {
			n++
		}
	}
	share := 0.0
	if len(policies) > 0 {
		share = float64(n) / float64(len(policies))
	}
	return QualityCheck{
		Name:      "Unknown start dates",
		Threshold: fmt.Sprintf("<= %.0f%%", c.maxUnknownStartShare*100),
		Actual:    fmt.Sprintf("%.2f%% (%d)", share*100, n),
		Pass:      share <= c.maxUnknownStartShare,
	}, fmt.Sprintf("%d policies have no start date and are excluded from trend tables", n)
}

// checkCategoriesObserved: absent categories get no reserve row.
func (c *QualityChecker) checkCategoriesObserved(policies []domain.EnrichedPolicy) (QualityCheck, string) {
	observed := make(map[domain.RiskCategory]bool, len(domain.RiskCategories))
	for i := range policies {
		observed[policies[i].Risk.Category] = true
	}

	var missing []string
	for _, rc := range domain.RiskCategories {
		if !observed[rc] {
			missing = append(missing, string(rc))
		}
	}

	return QualityCheck{
		Name:      "Risk categories observed",
		Threshold: fmt.Sprintf("%d of %d", len(domain.RiskCategories), len(domain.RiskCategories)),
		Actual:    fmt.Sprintf("%d of %d", len(domain.RiskCategories)-len(missing), len(domain.RiskCategories)),
		Pass:      len(missing) == 0,
	}, fmt.Sprintf("No policies in risk categories: %s", strings.Join(missing, ", "))
}

// toDataQuality converts a QualityResult to the report section.
func toDataQuality(result *QualityResult) reporting.DataQualitySection {
	checks := make([]reporting.QualityCheckRow, len(result.Checks))
	for i, c := range result.Checks {
		checks[i] = reporting.QualityCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		}
	}
	return reporting.DataQualitySection{
		Checks:          checks,
		Warnings:        result.Warnings,
		AllChecksPassed: result.AllPass,
	}
}

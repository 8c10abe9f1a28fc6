package domain

import "time"

// KPI is one portfolio indicator, optionally checked against a target.
type KPI struct {
	Metric string
	Value  float64
	Unit   string // "", "%", "$"
	Target string // empty when the KPI has no target
	Status string // "Good" | "Needs Attention", empty without target
}

// KPI target statuses.
const (
	KPIStatusGood           = "Good"
	KPIStatusNeedsAttention = "Needs Attention"
)

// RiskDistributionRow is the policy count and share of one risk category.
type RiskDistributionRow struct {
	Category   RiskCategory
	Count      int
	Percentage float64
}

// RunInfo identifies one batch run.
type RunInfo struct {
	RunID       string
	DataVersion string
	Source      string
	AsOf        time.Time
	PolicyCount int
}

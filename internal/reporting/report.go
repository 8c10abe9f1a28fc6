package reporting

import (
	"time"

	"policy-reserve-lab/internal/domain"
)

// Report represents the reserve report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Run         domain.RunInfo

	// Data Summary
	DataSummary DataSummary

	// Data Quality (sufficiency checks)
	DataQuality DataQualitySection

	// Executive Summary
	KPIs             []domain.KPI
	RiskDistribution []domain.RiskDistributionRow

	// Category analysis, one table per dimension in report order
	Aggregates []domain.AggregateTable

	// Reserves (sorted by category severity)
	Reserves        []domain.ReserveRequirement
	Capital         domain.CapitalAdequacy
	Recommendations []domain.Recommendation

	// Stress results in scenario catalog order
	Stress []domain.StressResult
}

// DataQualitySection contains data quality checks and warnings.
type DataQualitySection struct {
	Checks          []QualityCheckRow
	Warnings        []string
	AllChecksPassed bool
}

// QualityCheckRow represents one data quality criterion.
type QualityCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DataSummary contains data description.
type DataSummary struct {
	Source            string
	TotalPolicies     int
	TotalPremiums     float64
	TotalClaims       float64
	StartDateMin      time.Time // zero when no policy has a start date
	StartDateMax      time.Time
	UnknownStartDates int
	ImputedCells      int
}

// Input is everything a report is built from.
type Input struct {
	Run             domain.RunInfo
	Policies        []domain.EnrichedPolicy
	LoadStats       *domain.LoadStats
	DataQuality     DataQualitySection
	KPIs            []domain.KPI
	Distribution    []domain.RiskDistributionRow
	Aggregates      []domain.AggregateTable
	Reserves        []domain.ReserveRequirement
	Capital         domain.CapitalAdequacy
	Recommendations []domain.Recommendation
	Stress          []domain.StressResult
}

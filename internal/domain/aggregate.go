package domain

import "strings"

// Column names an aggregated numeric column of the enriched table.
type Column string

// Aggregated columns.
const (
	ColumnPremium       Column = "premium_amount"
	ColumnClaims        Column = "previous_claims"
	ColumnLossRatio     Column = "loss_ratio"
	ColumnRiskScore     Column = "risk_score"
	ColumnAge           Column = "age"
	ColumnHealthScore   Column = "health_score"
	ColumnCreditScore   Column = "credit_score"
	ColumnCustomerValue Column = "customer_value"
	ColumnDuration      Column = "policy_duration_years"
)

// AggregatedColumns is the fixed column order used by aggregates and their exports.
var AggregatedColumns = []Column{
	ColumnPremium,
	ColumnClaims,
	ColumnLossRatio,
	ColumnRiskScore,
	ColumnAge,
	ColumnHealthScore,
	ColumnCreditScore,
	ColumnCustomerValue,
	ColumnDuration,
}

// ColumnStats holds descriptive statistics for one column within a group.
type ColumnStats struct {
	Sum    float64
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	Stddev *float64 // sample stddev (n-1), nil when n < 2
}

// CategoryAggregate is the summary of one observed key tuple of a dimension.
type CategoryAggregate struct {
	Dimension   string
	KeyNames    []string
	Key         []string
	PolicyCount int

	Columns map[Column]ColumnStats

	// PooledLossRatio is sum(claims*1000)/sum(premium), 0 when sum(premium) is 0.
	PooledLossRatio float64
}

// Stats returns the statistics of a column (zero value when absent).
func (a *CategoryAggregate) Stats(c Column) ColumnStats {
	return a.Columns[c]
}

// TotalPremiums returns the premium sum.
func (a *CategoryAggregate) TotalPremiums() float64 { return a.Columns[ColumnPremium].Sum }

// TotalClaims returns the previous claims sum.
func (a *CategoryAggregate) TotalClaims() float64 { return a.Columns[ColumnClaims].Sum }

// AvgPremium returns the mean premium.
func (a *CategoryAggregate) AvgPremium() float64 { return a.Columns[ColumnPremium].Mean }

// AvgLossRatio returns the mean per-policy loss ratio.
func (a *CategoryAggregate) AvgLossRatio() float64 { return a.Columns[ColumnLossRatio].Mean }

// AvgDuration returns the mean policy duration in years.
func (a *CategoryAggregate) AvgDuration() float64 { return a.Columns[ColumnDuration].Mean }

// KeyString joins the key values for display.
func (a *CategoryAggregate) KeyString() string {
	return strings.Join(a.Key, " | ")
}

// AggregateTable is the full group-by result of one named dimension.
type AggregateTable struct {
	Dimension string
	KeyNames  []string
	Rows      []CategoryAggregate
}

// PolicyCount sums policy counts over all rows.
func (t *AggregateTable) PolicyCount() int {
	n := 0
	for i := range t.Rows {
		n += t.Rows[i].PolicyCount
	}
	return n
}

package metrics

import (
	"math"
	"sort"

	"policy-reserve-lab/internal/domain"
	"policy-reserve-lab/internal/risk"
)

// computeColumnStats calculates descriptive statistics for one column.
// Values are not modified.
func computeColumnStats(values []float64) domain.ColumnStats {
	n := len(values)
	if n == 0 {
		return domain.ColumnStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := computeSum(values)
	mean := sum / float64(n)

	return domain.ColumnStats{
		Sum:    sum,
		Mean:   mean,
		Median: computePercentile(sorted, 0.50),
		Min:    sorted[0],
		Max:    sorted[n-1],
		Stddev: computeStddev(values, mean),
	}
}

// computeSum adds values in input order so totals are reproducible.
func computeSum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// computeMean calculates arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return computeSum(values) / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
// Returns nil for fewer than 2 values.
func computeStddev(values []float64, mean float64) *float64 {
	n := len(values)
	if n < 2 {
		return nil
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	sd := math.Sqrt(sumSq / float64(n-1))
	return &sd
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.50 = median).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// pooledLossRatio is sum(claims*1000)/sum(premium), 0 when premiums sum to 0.
func pooledLossRatio(totalClaims, totalPremiums float64) float64 {
	if totalPremiums == 0 {
		return 0
	}
	return risk.ClaimsAmount(totalClaims) / totalPremiums
}

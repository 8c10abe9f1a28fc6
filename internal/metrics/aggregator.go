package metrics

import (
	"sort"
	"strings"

	"policy-reserve-lab/internal/domain"
)

// columnValue extracts each aggregated column from an enriched policy.
var columnValue = map[domain.Column]func(p *domain.EnrichedPolicy) float64{
	domain.ColumnPremium:       func(p *domain.EnrichedPolicy) float64 { return p.PremiumAmount },
	domain.ColumnClaims:        func(p *domain.EnrichedPolicy) float64 { return p.PreviousClaims },
	domain.ColumnLossRatio:     func(p *domain.EnrichedPolicy) float64 { return p.LossRatio },
	domain.ColumnRiskScore:     func(p *domain.EnrichedPolicy) float64 { return float64(p.Risk.Score) },
	domain.ColumnAge:           func(p *domain.EnrichedPolicy) float64 { return p.Age },
	domain.ColumnHealthScore:   func(p *domain.EnrichedPolicy) float64 { return p.HealthScore },
	domain.ColumnCreditScore:   func(p *domain.EnrichedPolicy) float64 { return p.CreditScore },
	domain.ColumnCustomerValue: func(p *domain.EnrichedPolicy) float64 { return p.CustomerValue },
	domain.ColumnDuration:      func(p *domain.EnrichedPolicy) float64 { return p.PolicyDurationYears },
}

// group collects the members of one key tuple in input order.
type group struct {
	key     []string
	members []*domain.EnrichedPolicy
}

// GroupBy computes one aggregate per observed key tuple of the dimension.
// Policies with a missing key value are excluded. Groups with no members
// never appear. Output is ordered by the key fields' ranks.
func GroupBy(policies []domain.EnrichedPolicy, dim Dimension) domain.AggregateTable {
	groups := make(map[string]*group)
	var ordered []*group

	for i := range policies {
		p := &policies[i]
		key, ok := keyOf(p, dim)
		if !ok {
			continue
		}
		id := strings.Join(key, "\x1f")
		g, exists := groups[id]
		if !exists {
			g = &group{key: key}
			groups[id] = g
			ordered = append(ordered, g)
		}
		g.members = append(g.members, p)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return keyLess(dim, ordered[i].key, ordered[j].key)
	})

	table := domain.AggregateTable{
		Dimension: dim.Name,
		KeyNames:  dim.KeyNames(),
		Rows:      make([]domain.CategoryAggregate, 0, len(ordered)),
	}
	for _, g := range ordered {
		table.Rows = append(table.Rows, summarize(dim, g))
	}
	return table
}

// AggregateAll runs GroupBy for each dimension, preserving dimension order.
func AggregateAll(policies []domain.EnrichedPolicy, dims []Dimension) []domain.AggregateTable {
	tables := make([]domain.AggregateTable, len(dims))
	for i, d := range dims {
		tables[i] = GroupBy(policies, d)
	}
	return tables
}

func keyOf(p *domain.EnrichedPolicy, dim Dimension) ([]string, bool) {
	key := make([]string, len(dim.Keys))
	for i, k := range dim.Keys {
		v, ok := k.Value(p)
		if !ok {
			return nil, false
		}
		key[i] = v
	}
	return key, true
}

func keyLess(dim Dimension, a, b []string) bool {
	for i, k := range dim.Keys {
		if a[i] == b[i] {
			continue
		}
		if k.Rank != nil {
			ra, rb := k.Rank(a[i]), k.Rank(b[i])
			if ra != rb {
				return ra < rb
			}
		}
		return a[i] < b[i]
	}
	return false
}

func summarize(dim Dimension, g *group) domain.CategoryAggregate {
	agg := domain.CategoryAggregate{
		Dimension:   dim.Name,
		KeyNames:    dim.KeyNames(),
		Key:         g.key,
		PolicyCount: len(g.members),
		Columns:     make(map[domain.Column]domain.ColumnStats, len(domain.AggregatedColumns)),
	}

	values := make([]float64, len(g.members))
	for _, col := range domain.AggregatedColumns {
		get := columnValue[col]
		for i, p := range g.members {
			values[i] = get(p)
		}
		agg.Columns[col] = computeColumnStats(values)
	}

	agg.PooledLossRatio = pooledLossRatio(agg.TotalClaims(), agg.TotalPremiums())
	return agg
}

// Package stats computes the per-operator expense statistics emitted as the
// aggregated dataset.
package stats

import (
	"math"
	"sort"

	"anscli/pkg/contracts/domain"
)

type groupKey struct {
	razao string
	uf    string
}

// Aggregate groups consolidated records by (RazaoSocial, UF) and computes
// total, mean and sample standard deviation per group. A single-member
// group has a standard deviation of 0 by policy, not as a numerical
// accident. The result is sorted by total descending; the sort is stable,
// so groups with equal totals keep their first-encounter order.
func Aggregate(records []domain.ConsolidatedRecord) []domain.ExpenseStat {
	if len(records) == 0 {
		return nil
	}

	groups := make(map[groupKey][]float64)
	var order []groupKey

	for _, r := range records {
		key := groupKey{razao: r.RazaoSocial, uf: r.UF}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r.Valor)
	}

	out := make([]domain.ExpenseStat, 0, len(order))
	for _, key := range order {
		values := groups[key]
		total, mean, stddev := describe(values)
		out = append(out, domain.ExpenseStat{
			RazaoSocial:     key.razao,
			UF:              key.uf,
			TotalDespesas:   total,
			MediaTrimestral: mean,
			DesvioPadrao:    stddev,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalDespesas > out[j].TotalDespesas
	})

	return out
}

// describe returns the sum, arithmetic mean and sample standard deviation of
// values. Callers guarantee at least one value per group.
func describe(values []float64) (total, mean, stddev float64) {
	for _, v := range values {
		total += v
	}
	n := float64(len(values))
	mean = total / n

	if len(values) < 2 {
		return total, mean, 0
	}

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	stddev = math.Sqrt(sumSq / (n - 1))

	return total, mean, stddev
}

package engine

import (
	"fmt"
	"sort"

	"crashboard/internal/models"
)

// TopN ranks an aggregation result's buckets by one metric and returns up
// to n entries. Ties are broken by ascending key tuple in both directions,
// so equal-valued results are deterministic. Asking for more entries than
// there are buckets returns all of them. Buckets for which the metric is
// undefined (fatality rate with nobody aboard) are excluded from the
// ranking rather than given a fabricated zero.
func TopN(res *AggResult, n int, metric string, descending bool) ([]models.RankedEntry, error) {
	if n < 1 {
		return nil, fmt.Errorf("topn: n must be at least 1, got %d", n)
	}
	if !knownMetrics[metric] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}

	entries := make([]models.RankedEntry, 0, len(res.Buckets))
	for _, b := range res.Buckets {
		v, ok := metricValue(b, metric)
		if !ok {
			continue
		}
		entries = append(entries, models.RankedEntry{Key: b.Key, Value: v})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			if descending {
				return entries[i].Value > entries[j].Value
			}
			return entries[i].Value < entries[j].Value
		}
		return compareKeys(entries[i].Key, entries[j].Key) < 0
	})

	if n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}

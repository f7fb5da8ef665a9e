package engine

import (
	"fmt"
	"sort"

	"crashboard/internal/models"
)

// Time granularities for trend series.
const (
	GranularityYear   = "year"
	GranularityDecade = "decade"
)

// TrendOptions selects the gap policy for one series. The default omits
// buckets with no records; ZeroFill emits explicit zero points for every
// step between the first and last observed bucket instead. One policy
// applies to the whole series, never a mix.
type TrendOptions struct {
	ZeroFill bool
}

type trendAcc struct {
	count         int
	sumFatalities int
	sumAboard     int
}

// Trend derives a time-bucketed series from the table, one point per
// observed bucket, sorted ascending. An empty table yields an empty series.
// Fatality-rate points are omitted where the bucket's aboard total is zero
// (the rate is undefined there, and zero-filling would fabricate a rate).
func Trend(t *Table, granularity, metric string, opts TrendOptions) ([]models.TrendPoint, error) {
	var step int
	switch granularity {
	case GranularityYear:
		step = 1
	case GranularityDecade:
		step = 10
	default:
		return nil, fmt.Errorf("%w: granularity %q", ErrUnknownDimension, granularity)
	}
	if metric == "" {
		metric = MetricCount
	}
	if !knownMetrics[metric] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}

	if t.Len() == 0 {
		return []models.TrendPoint{}, nil
	}

	accs := make(map[int]*trendAcc)
	for _, r := range t.Records {
		bucket := r.Year
		if step == 10 {
			bucket = r.Year / 10 * 10
		}
		a, ok := accs[bucket]
		if !ok {
			a = &trendAcc{}
			accs[bucket] = a
		}
		a.count++
		a.sumFatalities += r.Fatalities
		a.sumAboard += r.Aboard
	}

	series := make([]models.TrendPoint, 0, len(accs))
	for bucket, a := range accs {
		v, ok := trendValue(a, metric)
		if !ok {
			continue
		}
		series = append(series, models.TrendPoint{Bucket: bucket, Value: v})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Bucket < series[j].Bucket })

	if opts.ZeroFill && metric != MetricFatalityRate && len(series) > 1 {
		series = zeroFill(series, step)
	}
	return series, nil
}

func trendValue(a *trendAcc, metric string) (float64, bool) {
	switch metric {
	case MetricCount:
		return float64(a.count), true
	case MetricSumFatalities:
		return float64(a.sumFatalities), true
	case MetricSumAboard:
		return float64(a.sumAboard), true
	case MetricFatalityRate:
		if a.sumAboard == 0 {
			return 0, false
		}
		return float64(a.sumFatalities) / float64(a.sumAboard), true
	}
	return 0, false
}

func zeroFill(series []models.TrendPoint, step int) []models.TrendPoint {
	filled := make([]models.TrendPoint, 0, len(series))
	filled = append(filled, series[0])
	for _, p := range series[1:] {
		for next := filled[len(filled)-1].Bucket + step; next < p.Bucket; next += step {
			filled = append(filled, models.TrendPoint{Bucket: next})
		}
		filled = append(filled, p)
	}
	return filled
}

// MovingAverage smooths a series with a trailing window. It is a pure
// function: the input series is untouched and a new one is returned with
// the same buckets. A window of 1 or less is an identity copy.
func MovingAverage(series []models.TrendPoint, window int) []models.TrendPoint {
	out := make([]models.TrendPoint, len(series))
	copy(out, series)
	if window <= 1 {
		return out
	}
	var sum float64
	for i := range series {
		sum += series[i].Value
		if i >= window {
			sum -= series[i-window].Value
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i].Value = sum / float64(n)
	}
	return out
}

package engine

import (
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"crashboard/internal/models"
)

// Recognized grouping dimensions.
const (
	DimYear         = "year"
	DimDecade       = "decade"
	DimCountry      = "country"
	DimOperator     = "operator"
	DimAircraftType = "aircraftType"
)

// Recognized metrics.
const (
	MetricCount         = "count"
	MetricSumFatalities = "sum-fatalities"
	MetricSumAboard     = "sum-aboard"
	MetricFatalityRate  = "fatality-rate"
)

// UnknownValue is the bucket records land in when they are missing a value
// for a requested key field. They are grouped, never dropped.
const UnknownValue = "Unknown"

var knownDimensions = map[string]bool{
	DimYear: true, DimDecade: true, DimCountry: true,
	DimOperator: true, DimAircraftType: true,
}

var knownMetrics = map[string]bool{
	MetricCount: true, MetricSumFatalities: true,
	MetricSumAboard: true, MetricFatalityRate: true,
}

// AggResult is one query's buckets, sorted ascending by key tuple.
type AggResult struct {
	KeyFields []string        `json:"key_fields"`
	Metrics   []string        `json:"metrics"`
	Buckets   []models.Bucket `json:"buckets"`
}

// shardThreshold is the table size above which aggregation fans out across
// CPUs. Partial sums are merged with plain addition, so the parallel path
// produces exactly the single-threaded result. Variable so tests can force
// the parallel path on small fixtures.
var shardThreshold = 100_000

type bucketAcc struct {
	key           []string
	count         int
	sumFatalities int
	sumAboard     int
}

// Aggregate groups the table by keyFields and computes the requested
// metrics per bucket. An empty keyFields list yields one grand-total
// bucket; an empty metrics list defaults to count. The result only depends
// on the multiset of records, not their order, and is recomputed per call.
func Aggregate(t *Table, keyFields, metrics []string) (*AggResult, error) {
	for _, d := range keyFields {
		if !knownDimensions[d] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, d)
		}
	}
	if len(metrics) == 0 {
		metrics = []string{MetricCount}
	}
	for _, m := range metrics {
		if !knownMetrics[m] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
		}
	}

	res := &AggResult{
		KeyFields: append([]string(nil), keyFields...),
		Metrics:   append([]string(nil), metrics...),
	}
	if t.Len() == 0 {
		res.Buckets = []models.Bucket{}
		return res, nil
	}

	var accs map[string]*bucketAcc
	if t.Len() >= shardThreshold {
		accs = accumulateParallel(t.Records, keyFields)
	} else {
		accs = accumulate(t.Records, keyFields)
	}

	res.Buckets = make([]models.Bucket, 0, len(accs))
	for _, a := range accs {
		b := models.Bucket{
			Key:           a.key,
			Count:         a.count,
			SumFatalities: a.sumFatalities,
			SumAboard:     a.sumAboard,
		}
		if a.sumAboard > 0 {
			rate := float64(a.sumFatalities) / float64(a.sumAboard)
			b.FatalityRate = &rate
		}
		res.Buckets = append(res.Buckets, b)
	}
	sort.Slice(res.Buckets, func(i, j int) bool {
		return compareKeys(res.Buckets[i].Key, res.Buckets[j].Key) < 0
	})
	return res, nil
}

func accumulate(records []models.CrashRecord, keyFields []string) map[string]*bucketAcc {
	accs := make(map[string]*bucketAcc)
	for _, r := range records {
		key := keyOf(r, keyFields)
		id := strings.Join(key, "\x1f")
		a, ok := accs[id]
		if !ok {
			a = &bucketAcc{key: key}
			accs[id] = a
		}
		a.count++
		a.sumFatalities += r.Fatalities
		a.sumAboard += r.Aboard
	}
	return accs
}

// accumulateParallel splits the table into per-CPU shards, accumulates each
// independently, and folds the partial maps together. Addition is
// associative and commutative, so shard boundaries cannot change results.
func accumulateParallel(records []models.CrashRecord, keyFields []string) map[string]*bucketAcc {
	workers := runtime.NumCPU()
	if workers > len(records) {
		workers = 1
	}
	chunk := (len(records) + workers - 1) / workers

	partials := make([]map[string]*bucketAcc, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo > len(records) {
			lo = len(records)
		}
		hi := lo + chunk
		if hi > len(records) {
			hi = len(records)
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			partials[w] = accumulate(records[lo:hi], keyFields)
		}(w, lo, hi)
	}
	wg.Wait()

	merged := partials[0]
	for _, p := range partials[1:] {
		for id, a := range p {
			m, ok := merged[id]
			if !ok {
				merged[id] = a
				continue
			}
			m.count += a.count
			m.sumFatalities += a.sumFatalities
			m.sumAboard += a.sumAboard
		}
	}
	return merged
}

func keyOf(r models.CrashRecord, keyFields []string) []string {
	key := make([]string, len(keyFields))
	for i, d := range keyFields {
		key[i] = dimensionValue(r, d)
	}
	return key
}

// dimensionValue extracts one record's value for a dimension. Decades are
// anchored at multiples of ten: 1985 -> 1980.
func dimensionValue(r models.CrashRecord, dim string) string {
	switch dim {
	case DimYear:
		return strconv.Itoa(r.Year)
	case DimDecade:
		return strconv.Itoa(r.Year / 10 * 10)
	case DimCountry:
		return orUnknown(r.Country)
	case DimOperator:
		return orUnknown(r.Operator)
	case DimAircraftType:
		return orUnknown(r.AircraftType)
	}
	return UnknownValue
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return UnknownValue
	}
	return v
}

// compareKeys orders key tuples element-wise. Values that are both numeric
// compare as integers so "999" sorts before "1000"; everything else is
// plain string order. Used for bucket ordering and for ranking tie-breaks.
func compareKeys(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] == b[i] {
			continue
		}
		na, aerr := strconv.Atoi(a[i])
		nb, berr := strconv.Atoi(b[i])
		if aerr == nil && berr == nil {
			if na < nb {
				return -1
			}
			return 1
		}
		if a[i] < b[i] {
			return -1
		}
		return 1
	}
	return len(a) - len(b)
}

// metricValue reads one metric off a bucket. The second return is false
// when the metric is undefined for the bucket (fatality rate with nobody
// aboard).
func metricValue(b models.Bucket, metric string) (float64, bool) {
	switch metric {
	case MetricCount:
		return float64(b.Count), true
	case MetricSumFatalities:
		return float64(b.SumFatalities), true
	case MetricSumAboard:
		return float64(b.SumAboard), true
	case MetricFatalityRate:
		if b.FatalityRate == nil {
			return 0, false
		}
		return *b.FatalityRate, true
	}
	return 0, false
}

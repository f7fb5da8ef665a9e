// Package export renders aggregation results as CSV for download from the
// dashboard.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"crashboard/internal/engine"
)

// header builds the CSV column list: the key fields, then the requested
// metrics in request order.
func header(res *engine.AggResult) []string {
	cols := append([]string(nil), res.KeyFields...)
	if len(res.KeyFields) == 0 {
		cols = append(cols, "total")
	}
	return append(cols, res.Metrics...)
}

func row(res *engine.AggResult, b int) []string {
	bucket := res.Buckets[b]
	cells := append([]string(nil), bucket.Key...)
	if len(res.KeyFields) == 0 {
		cells = append(cells, "all")
	}
	for _, m := range res.Metrics {
		switch m {
		case engine.MetricCount:
			cells = append(cells, strconv.Itoa(bucket.Count))
		case engine.MetricSumFatalities:
			cells = append(cells, strconv.Itoa(bucket.SumFatalities))
		case engine.MetricSumAboard:
			cells = append(cells, strconv.Itoa(bucket.SumAboard))
		case engine.MetricFatalityRate:
			if bucket.FatalityRate == nil {
				cells = append(cells, "")
			} else {
				cells = append(cells, strconv.FormatFloat(*bucket.FatalityRate, 'f', 4, 64))
			}
		}
	}
	return cells
}

// Frame converts an aggregation result into a gota dataframe.
func Frame(res *engine.AggResult) dataframe.DataFrame {
	records := make([][]string, 0, len(res.Buckets)+1)
	records = append(records, header(res))
	for i := range res.Buckets {
		records = append(records, row(res, i))
	}
	return dataframe.LoadRecords(records, dataframe.DetectTypes(false))
}

// WriteCSV streams an aggregation result to w as CSV, header included. An
// empty result still produces the header line.
func WriteCSV(res *engine.AggResult, w io.Writer) error {
	if len(res.Buckets) == 0 {
		_, err := fmt.Fprintln(w, strings.Join(header(res), ","))
		return err
	}
	df := Frame(res)
	if df.Err != nil {
		return df.Err
	}
	return df.WriteCSV(w)
}

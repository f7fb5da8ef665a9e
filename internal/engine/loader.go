package engine

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"crashboard/internal/logging"
	"crashboard/internal/models"
)

// Semantic fields the loader understands. Source columns are mapped onto
// these names through LoadOptions.Columns.
const (
	FieldYear         = "year"
	FieldMonth        = "month"
	FieldDay          = "day"
	FieldCountry      = "country"
	FieldOperator     = "operator"
	FieldAircraftType = "aircraftType"
	FieldFatalities   = "fatalities"
	FieldAboard       = "aboard"
)

// LoadOptions configures one load. Columns maps source column names to
// semantic fields; when empty, defaultColumns covers the stock dataset.
type LoadOptions struct {
	Columns map[string]string
	Sheet   string // xlsx only; first sheet when empty
	Strict  bool
}

// LoadStats reports what a load did. Skipped counts malformed rows dropped
// in lenient mode; it is always zero after a successful strict load.
type LoadStats struct {
	Rows    int
	Skipped int
}

// defaultColumns matches the published air-crash dataset headers.
var defaultColumns = map[string]string{
	"Year":             FieldYear,
	"Month":            FieldMonth,
	"Day":              FieldDay,
	"Country/Region":   FieldCountry,
	"Country":          FieldCountry,
	"Operator":         FieldOperator,
	"Aircraft":         FieldAircraftType,
	"Aircraft Type":    FieldAircraftType,
	"Fatalities (air)": FieldFatalities,
	"Fatalities":       FieldFatalities,
	"Aboard":           FieldAboard,
}

// Load reads a dataset file into a normalized table. The format is chosen
// by extension: .xlsx/.xlsm go through excelize, everything else is parsed
// as comma-delimited text with a header row.
func Load(path string, opts LoadOptions) (*Table, LoadStats, error) {
	start := time.Now()
	log := logging.With("loader")

	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path, opts.Sheet)
	default:
		rows, err = readCSV(path)
	}
	if err != nil {
		return nil, LoadStats{}, err
	}

	table, stats, err := parseRows(rows, opts)
	if err != nil {
		return nil, stats, err
	}

	log.Info().
		Str("path", path).
		Int("rows", stats.Rows).
		Int("skipped", stats.Skipped).
		Dur("elapsed", time.Since(start)).
		Msg("dataset loaded")
	return table, stats, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are handled per-field downstream
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return rows, nil
}

// parseRows turns header+data rows into a table. Row 0 is the header.
func parseRows(rows [][]string, opts LoadOptions) (*Table, LoadStats, error) {
	if len(rows) == 0 {
		return nil, LoadStats{}, fmt.Errorf("dataset has no header row")
	}

	idx, err := columnIndex(rows[0], opts.Columns)
	if err != nil {
		return nil, LoadStats{}, err
	}

	var stats LoadStats
	records := make([]models.CrashRecord, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		line := i + 2 // 1-based, after the header
		if len(cells) == 0 {
			continue
		}
		rec, merr := parseRecord(cells, idx, line)
		if merr != nil {
			if opts.Strict {
				return nil, stats, merr
			}
			stats.Skipped++
			continue
		}
		records = append(records, rec)
	}
	stats.Rows = len(records)
	return NewTable(records), stats, nil
}

// columnIndex resolves the header to semantic-field → column positions.
// A year column is mandatory; everything else is optional.
func columnIndex(header []string, mapping map[string]string) (map[string]int, error) {
	if len(mapping) == 0 {
		mapping = defaultColumns
	}
	idx := make(map[string]int, len(mapping))
	for col, name := range header {
		field, ok := mapping[strings.TrimSpace(name)]
		if !ok {
			continue
		}
		if _, dup := idx[field]; !dup {
			idx[field] = col
		}
	}
	if _, ok := idx[FieldYear]; !ok {
		return nil, fmt.Errorf("no column maps to the %q field", FieldYear)
	}
	return idx, nil
}

func cell(cells []string, idx map[string]int, field string) (string, bool) {
	col, ok := idx[field]
	if !ok || col >= len(cells) {
		return "", false
	}
	return strings.TrimSpace(cells[col]), true
}

func parseRecord(cells []string, idx map[string]int, line int) (models.CrashRecord, *MalformedRecordError) {
	var rec models.CrashRecord

	raw, _ := cell(cells, idx, FieldYear)
	year, err := strconv.Atoi(raw)
	if err != nil || year <= 0 {
		return rec, &MalformedRecordError{Line: line, Field: FieldYear, Reason: fmt.Sprintf("unparseable year %q", raw)}
	}
	rec.Year = year

	// Month and day are allowed to be missing; a present but garbled month
	// still fails the row because the date as a whole is unparseable.
	if raw, ok := cell(cells, idx, FieldMonth); ok && raw != "" {
		m, ok := parseMonth(raw)
		if !ok {
			return rec, &MalformedRecordError{Line: line, Field: FieldMonth, Reason: fmt.Sprintf("unparseable month %q", raw)}
		}
		rec.Month = m
	}
	if raw, ok := cell(cells, idx, FieldDay); ok && raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 1 || d > 31 {
			return rec, &MalformedRecordError{Line: line, Field: FieldDay, Reason: fmt.Sprintf("unparseable day %q", raw)}
		}
		rec.Day = d
	}

	rec.Country, _ = cell(cells, idx, FieldCountry)
	rec.Operator, _ = cell(cells, idx, FieldOperator)
	rec.AircraftType, _ = cell(cells, idx, FieldAircraftType)

	fat, merr := parseCount(cells, idx, FieldFatalities, line)
	if merr != nil {
		return rec, merr
	}
	aboard, merr := parseCount(cells, idx, FieldAboard, line)
	if merr != nil {
		return rec, merr
	}
	if aboard > 0 && fat > aboard {
		return rec, &MalformedRecordError{Line: line, Field: FieldAboard, Reason: fmt.Sprintf("aboard %d is less than fatalities %d", aboard, fat)}
	}
	rec.Fatalities = fat
	rec.Aboard = aboard
	return rec, nil
}

// parseCount reads a non-negative integer field. Blank cells count as zero,
// mirroring how the source dataset leaves unknown tallies empty.
func parseCount(cells []string, idx map[string]int, field string, line int) (int, *MalformedRecordError) {
	raw, ok := cell(cells, idx, field)
	if !ok || raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		// Spreadsheet exports sometimes render counts as "12.0".
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, &MalformedRecordError{Line: line, Field: field, Reason: fmt.Sprintf("non-numeric value %q", raw)}
		}
		n = int(f)
	}
	if n < 0 {
		return 0, &MalformedRecordError{Line: line, Field: field, Reason: fmt.Sprintf("negative value %d", n)}
	}
	return n, nil
}

var monthNames = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
}

// parseMonth accepts numeric months and English month names, full or
// three-letter, which is how the stock dataset records them.
func parseMonth(raw string) (int, bool) {
	if n, err := strconv.Atoi(raw); err == nil {
		if n >= 1 && n <= 12 {
			return n, true
		}
		return 0, false
	}
	name := strings.ToLower(raw)
	if m, ok := monthNames[name]; ok {
		return m, true
	}
	if len(name) == 3 {
		for full, m := range monthNames {
			if strings.HasPrefix(full, name) {
				return m, true
			}
		}
	}
	return 0, false
}

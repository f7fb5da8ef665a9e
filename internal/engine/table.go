package engine

import (
	"strconv"
	"strings"
	"sync/atomic"

	"crashboard/internal/models"
)

// Table is the normalized in-memory dataset. Records keep source order and
// are never mutated after load; derived tables (filters, dedup) are new
// tables with a fresh version so caches can tell them apart.
type Table struct {
	Records []models.CrashRecord
	Version uint64
}

var versionCounter atomic.Uint64

// NewTable wraps records in a freshly versioned table.
func NewTable(records []models.CrashRecord) *Table {
	return &Table{Records: records, Version: versionCounter.Add(1)}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Filter selects records for the dashboard's sidebar filters. Zero values
// mean "no constraint". Operator and Country match exactly.
type Filter struct {
	FromYear int
	ToYear   int
	Operator string
	Country  string
}

func (f Filter) IsZero() bool {
	return f.FromYear == 0 && f.ToYear == 0 && f.Operator == "" && f.Country == ""
}

func (f Filter) matches(r models.CrashRecord) bool {
	if f.FromYear != 0 && r.Year < f.FromYear {
		return false
	}
	if f.ToYear != 0 && r.Year > f.ToYear {
		return false
	}
	if f.Operator != "" && r.Operator != f.Operator {
		return false
	}
	if f.Country != "" && r.Country != f.Country {
		return false
	}
	return true
}

// Where returns a new table holding the records that match f, in source
// order. The receiver is left untouched.
func (t *Table) Where(f Filter) *Table {
	if f.IsZero() {
		return t
	}
	kept := make([]models.CrashRecord, 0, len(t.Records))
	for _, r := range t.Records {
		if f.matches(r) {
			kept = append(kept, r)
		}
	}
	return NewTable(kept)
}

// DedupPolicy controls how identical-looking incidents are reconciled.
// The source data has no authoritative incident ID, so the policy is the
// caller's choice; the default keeps everything.
type DedupPolicy int

const (
	KeepAll DedupPolicy = iota
	KeepFirst
	KeepLast
)

func dedupKey(r models.CrashRecord) string {
	return strings.Join([]string{
		strconv.Itoa(r.Year), strconv.Itoa(r.Month), strconv.Itoa(r.Day),
		r.Country, r.Operator, r.AircraftType,
	}, "\x1f")
}

// Deduplicate returns a table with duplicate incidents collapsed per the
// policy. Records are identified by (date, country, operator, aircraft
// type); conflicting fatality counts are resolved by position, never merged.
func (t *Table) Deduplicate(policy DedupPolicy) *Table {
	if policy == KeepAll {
		return t
	}
	seen := make(map[string]int, len(t.Records))
	kept := make([]models.CrashRecord, 0, len(t.Records))
	for _, r := range t.Records {
		k := dedupKey(r)
		if i, ok := seen[k]; ok {
			if policy == KeepLast {
				kept[i] = r
			}
			continue
		}
		seen[k] = len(kept)
		kept = append(kept, r)
	}
	return NewTable(kept)
}

// Summary computes the dashboard's headline numbers over the whole table.
func (t *Table) Summary() models.Summary {
	s := models.Summary{Crashes: t.Len()}
	if t.Len() == 0 {
		return s
	}
	first, last := t.Records[0].Year, t.Records[0].Year
	survivors := 0
	for _, r := range t.Records {
		s.Fatalities += r.Fatalities
		s.Aboard += r.Aboard
		survivors += r.Survivors()
		if r.Year < first {
			first = r.Year
		}
		if r.Year > last {
			last = r.Year
		}
	}
	s.FirstYear, s.LastYear = first, last
	if s.Aboard > 0 {
		rate := float64(survivors) / float64(s.Aboard)
		s.SurvivalRate = &rate
	}
	span := last - first + 1
	s.CrashesPerYear = float64(s.Crashes) / float64(span)
	return s
}

package models

// CrashRecord is one incident as loaded from the source file.
// Immutable once loaded; zero Month/Day mean "not reported".
type CrashRecord struct {
	Year         int    `json:"year"`
	Month        int    `json:"month,omitempty"`
	Day          int    `json:"day,omitempty"`
	Country      string `json:"country,omitempty"`
	Operator     string `json:"operator,omitempty"`
	AircraftType string `json:"aircraft_type,omitempty"`
	Fatalities   int    `json:"fatalities"`
	Aboard       int    `json:"aboard"`
}

// Survivors derives aboard minus fatalities, clamped at zero.
func (r CrashRecord) Survivors() int {
	s := r.Aboard - r.Fatalities
	if s < 0 {
		return 0
	}
	return s
}

// Bucket is one aggregated group: the key tuple (one value per requested
// dimension, in request order) plus its summaries. FatalityRate is nil when
// the bucket's aboard total is zero.
type Bucket struct {
	Key           []string `json:"key"`
	Count         int      `json:"count"`
	SumFatalities int      `json:"sum_fatalities"`
	SumAboard     int      `json:"sum_aboard"`
	FatalityRate  *float64 `json:"fatality_rate,omitempty"`
}

// TrendPoint is one (time bucket, value) pair of a series.
type TrendPoint struct {
	Bucket int     `json:"bucket"`
	Value  float64 `json:"value"`
}

// RankedEntry is one row of a top-N view.
type RankedEntry struct {
	Key   []string `json:"key"`
	Value float64  `json:"value"`
}

// Summary is the dashboard's headline metric row.
type Summary struct {
	Crashes        int      `json:"crashes"`
	Fatalities     int      `json:"fatalities"`
	Aboard         int      `json:"aboard"`
	SurvivalRate   *float64 `json:"survival_rate,omitempty"`
	FirstYear      int      `json:"first_year,omitempty"`
	LastYear       int      `json:"last_year,omitempty"`
	CrashesPerYear float64  `json:"crashes_per_year"`
}

// Status reports what the API is currently serving.
type Status struct {
	Ready    bool   `json:"ready"`
	Version  uint64 `json:"version,omitempty"`
	Rows     int    `json:"rows"`
	Skipped  int    `json:"skipped"`
	LoadedAt string `json:"loaded_at,omitempty"`
	Source   string `json:"source,omitempty"`
}

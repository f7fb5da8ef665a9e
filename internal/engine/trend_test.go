package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crashboard/internal/models"
)

func TestTrendDecadeBucketing(t *testing.T) {
	records := []models.CrashRecord{
		{Year: 1985}, {Year: 1980}, {Year: 1989}, {Year: 1979},
	}
	series, err := Trend(NewTable(records), GranularityDecade, MetricCount, TrendOptions{})
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.Equal(t, models.TrendPoint{Bucket: 1970, Value: 1}, series[0])
	assert.Equal(t, models.TrendPoint{Bucket: 1980, Value: 3}, series[1])
}

func TestTrendSortedAscending(t *testing.T) {
	records := []models.CrashRecord{
		{Year: 2001, Fatalities: 2}, {Year: 1950, Fatalities: 1}, {Year: 1999, Fatalities: 3},
	}
	series, err := Trend(NewTable(records), GranularityYear, MetricSumFatalities, TrendOptions{})
	require.NoError(t, err)

	require.Len(t, series, 3)
	assert.Equal(t, 1950, series[0].Bucket)
	assert.Equal(t, 1999, series[1].Bucket)
	assert.Equal(t, 2001, series[2].Bucket)
}

func TestTrendZeroFill(t *testing.T) {
	records := []models.CrashRecord{{Year: 1950}, {Year: 1953}}
	series, err := Trend(NewTable(records), GranularityYear, MetricCount, TrendOptions{ZeroFill: true})
	require.NoError(t, err)

	require.Len(t, series, 4)
	assert.Equal(t, []models.TrendPoint{
		{Bucket: 1950, Value: 1},
		{Bucket: 1951, Value: 0},
		{Bucket: 1952, Value: 0},
		{Bucket: 1953, Value: 1},
	}, series)
}

func TestTrendOmitsGapsByDefault(t *testing.T) {
	records := []models.CrashRecord{{Year: 1950}, {Year: 1953}}
	series, err := Trend(NewTable(records), GranularityYear, MetricCount, TrendOptions{})
	require.NoError(t, err)
	require.Len(t, series, 2)
}

func TestTrendRateSkipsUndefinedBuckets(t *testing.T) {
	records := []models.CrashRecord{
		{Year: 1950, Fatalities: 5, Aboard: 10},
		{Year: 1951, Fatalities: 0, Aboard: 0},
	}
	series, err := Trend(NewTable(records), GranularityYear, MetricFatalityRate, TrendOptions{})
	require.NoError(t, err)

	require.Len(t, series, 1)
	assert.Equal(t, 1950, series[0].Bucket)
	assert.InDelta(t, 0.5, series[0].Value, 1e-12)
}

func TestTrendEmptyTable(t *testing.T) {
	series, err := Trend(NewTable(nil), GranularityYear, MetricCount, TrendOptions{})
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestTrendUnknownGranularity(t *testing.T) {
	_, err := Trend(NewTable(nil), "century", MetricCount, TrendOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDimension))
}

func TestMovingAverageIsPure(t *testing.T) {
	series := []models.TrendPoint{
		{Bucket: 1950, Value: 2}, {Bucket: 1951, Value: 4}, {Bucket: 1952, Value: 6},
	}
	smoothed := MovingAverage(series, 2)

	// Input untouched.
	assert.Equal(t, 2.0, series[0].Value)
	assert.Equal(t, 4.0, series[1].Value)

	require.Len(t, smoothed, 3)
	assert.Equal(t, 2.0, smoothed[0].Value)
	assert.Equal(t, 3.0, smoothed[1].Value)
	assert.Equal(t, 5.0, smoothed[2].Value)
}

func TestMovingAverageSmallWindow(t *testing.T) {
	series := []models.TrendPoint{{Bucket: 1950, Value: 7}}
	assert.Equal(t, series, MovingAverage(series, 1))
	assert.Equal(t, series, MovingAverage(series, 0))
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crashboard/internal/models"
)

func rankFixture(t *testing.T) *AggResult {
	t.Helper()
	records := []models.CrashRecord{
		{Year: 1950, Operator: "KLM", Fatalities: 30, Aboard: 40},
		{Year: 1951, Operator: "BOAC", Fatalities: 30, Aboard: 60},
		{Year: 1952, Operator: "Pan Am", Fatalities: 80, Aboard: 100},
		{Year: 1953, Operator: "Aeroflot", Fatalities: 10, Aboard: 20},
	}
	res, err := Aggregate(NewTable(records), []string{DimOperator}, []string{MetricSumFatalities, MetricFatalityRate})
	require.NoError(t, err)
	return res
}

func TestTopNDescending(t *testing.T) {
	ranked, err := TopN(rankFixture(t), 2, MetricSumFatalities, true)
	require.NoError(t, err)

	require.Len(t, ranked, 2)
	assert.Equal(t, []string{"Pan Am"}, ranked[0].Key)
	assert.Equal(t, 80.0, ranked[0].Value)
	// KLM and BOAC tie at 30; ascending key order puts BOAC first.
	assert.Equal(t, []string{"BOAC"}, ranked[1].Key)
}

func TestTopNTieBreakIsDeterministic(t *testing.T) {
	res := rankFixture(t)
	for i := 0; i < 5; i++ {
		ranked, err := TopN(res, 4, MetricSumFatalities, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"BOAC"}, ranked[1].Key)
		assert.Equal(t, []string{"KLM"}, ranked[2].Key)
	}
}

func TestTopNLargerThanBuckets(t *testing.T) {
	ranked, err := TopN(rankFixture(t), 100, MetricSumFatalities, true)
	require.NoError(t, err)
	assert.Len(t, ranked, 4)
}

func TestTopNAscendingReversesDescendingWithoutTies(t *testing.T) {
	records := []models.CrashRecord{
		{Year: 1950, Operator: "A", Fatalities: 1},
		{Year: 1951, Operator: "B", Fatalities: 2},
		{Year: 1952, Operator: "C", Fatalities: 3},
	}
	res, err := Aggregate(NewTable(records), []string{DimOperator}, []string{MetricSumFatalities})
	require.NoError(t, err)

	desc, err := TopN(res, 3, MetricSumFatalities, true)
	require.NoError(t, err)
	asc, err := TopN(res, 3, MetricSumFatalities, false)
	require.NoError(t, err)

	require.Len(t, desc, 3)
	for i := range desc {
		assert.Equal(t, desc[i], asc[len(asc)-1-i])
	}
}

func TestTopNInvalidN(t *testing.T) {
	_, err := TopN(rankFixture(t), 0, MetricSumFatalities, true)
	require.Error(t, err)
}

func TestTopNExcludesUndefinedRates(t *testing.T) {
	records := []models.CrashRecord{
		{Year: 1950, Operator: "KLM", Fatalities: 5, Aboard: 10},
		{Year: 1951, Operator: "Ghost Air", Fatalities: 0, Aboard: 0},
	}
	res, err := Aggregate(NewTable(records), []string{DimOperator}, []string{MetricFatalityRate})
	require.NoError(t, err)

	ranked, err := TopN(res, 10, MetricFatalityRate, true)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, []string{"KLM"}, ranked[0].Key)
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCache(t *testing.T) {
	c := NewQueryCache()
	dims := []string{DimYear}
	metrics := []string{MetricCount}
	res := &AggResult{KeyFields: dims, Metrics: metrics}

	_, ok := c.Get(1, dims, metrics)
	assert.False(t, ok)

	c.Put(1, dims, metrics, res)
	got, ok := c.Get(1, dims, metrics)
	require.True(t, ok)
	assert.Same(t, res, got)

	// A different table version is a different entry.
	_, ok = c.Get(2, dims, metrics)
	assert.False(t, ok)

	// So are different dimensions or metrics.
	_, ok = c.Get(1, []string{DimDecade}, metrics)
	assert.False(t, ok)
	_, ok = c.Get(1, dims, []string{MetricSumAboard})
	assert.False(t, ok)
}

func TestQueryCacheInvalidate(t *testing.T) {
	c := NewQueryCache()
	c.Put(1, []string{DimYear}, []string{MetricCount}, &AggResult{})
	c.Put(2, []string{DimDecade}, []string{MetricCount}, &AggResult{})
	require.Equal(t, 2, c.Len())

	c.Invalidate()
	assert.Zero(t, c.Len())
	_, ok := c.Get(1, []string{DimYear}, []string{MetricCount})
	assert.False(t, ok)
}

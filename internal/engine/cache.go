package engine

import (
	"strings"
	"sync"
)

// QueryCache memoizes aggregation results across repeated dashboard
// queries. Entries are keyed by (table version, key fields, metrics) so a
// reload can never serve stale buckets, and invalidation is explicit —
// nothing here is tied to object identity.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*AggResult
}

type cacheKey struct {
	version uint64
	dims    string
	metrics string
}

func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[cacheKey]*AggResult)}
}

func newCacheKey(version uint64, keyFields, metrics []string) cacheKey {
	return cacheKey{
		version: version,
		dims:    strings.Join(keyFields, ","),
		metrics: strings.Join(metrics, ","),
	}
}

func (c *QueryCache) Get(version uint64, keyFields, metrics []string) (*AggResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[newCacheKey(version, keyFields, metrics)]
	return res, ok
}

func (c *QueryCache) Put(version uint64, keyFields, metrics []string, res *AggResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[newCacheKey(version, keyFields, metrics)] = res
}

// Invalidate drops every entry. Called when the source table is reloaded.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*AggResult)
}

func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

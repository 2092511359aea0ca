package client

import (
	"sync"
	"time"
)

// query is a cache key naming one server-side read.
type query string

const (
	queryExpenses  query = "expenses"
	queryFunds     query = "funds"
	queryDashboard query = "dashboard"
)

// invalidations maps a mutated record kind to the queries whose cached
// results it stales. Mutating either kind stales the dashboard, which
// aggregates both.
var invalidations = map[query][]query{
	queryExpenses: {queryExpenses, queryDashboard},
	queryFunds:    {queryFunds, queryDashboard},
}

type cacheEntry struct {
	data      any
	fetchedAt time.Time
}

// queryCache holds the last fetched result per query key and serves it
// until it goes stale. Entries never expire on their own; staleness is
// checked on read so a dropped entry costs one refetch at most.
type queryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[query]cacheEntry
	now     func() time.Time
}

func newQueryCache(ttl time.Duration) *queryCache {
	return &queryCache{
		ttl:     ttl,
		entries: make(map[query]cacheEntry),
		now:     time.Now,
	}
}

func (c *queryCache) get(key query) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.data, true
}

func (c *queryCache) set(key query, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{data: data, fetchedAt: c.now()}
}

// invalidate drops the cached results affected by a mutation of kind.
func (c *queryCache) invalidate(kind query) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range invalidations[kind] {
		delete(c.entries, key)
	}
}

func (c *queryCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/liamcoop/creditreports/internal/metrics"
	"github.com/liamcoop/creditreports/report"
)

type entry struct {
	rec      *report.Record
	cachedAt time.Time
}

// InMemoryCache is a simple in-memory implementation of ReportCache.
// Thread-safe for concurrent access
type InMemoryCache struct {
	config  Config
	reports map[string]entry
	list    []*report.Record
	listAt  time.Time
	listGen uint64
	hasList bool
	mu      sync.RWMutex
	now     func() time.Time
}

// NewInMemoryCache creates a new in-memory report cache
func NewInMemoryCache(config Config) *InMemoryCache {
	return &InMemoryCache{
		config:  config,
		reports: make(map[string]entry),
		now:     time.Now,
	}
}

func (c *InMemoryCache) expired(at time.Time) bool {
	return c.config.TTL > 0 && c.now().Sub(at) > c.config.TTL
}

// GetReport retrieves a cached record
func (c *InMemoryCache) GetReport(_ context.Context, id string) (*report.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.reports[id]
	if !ok || c.expired(e.cachedAt) {
		metrics.CacheMisses.WithLabelValues("report").Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues("report").Inc()
	return copyRecord(e.rec), true
}

// SetReport stores a copy of rec
func (c *InMemoryCache) SetReport(_ context.Context, rec *report.Record) {
	if rec == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.reports[rec.ID] = entry{rec: copyRecord(rec), cachedAt: c.now()}
}

// GetList retrieves the cached listing
func (c *InMemoryCache) GetList(_ context.Context) ([]*report.Record, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.hasList || c.expired(c.listAt) {
		metrics.CacheMisses.WithLabelValues("list").Inc()
		return nil, c.listGen, false
	}

	metrics.CacheHits.WithLabelValues("list").Inc()
	return copyList(c.list), c.listGen, true
}

// SetList stores a copy of the listing if gen is still current
func (c *InMemoryCache) SetList(_ context.Context, gen uint64, list []*report.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.listGen {
		return
	}
	c.list = copyList(list)
	c.listAt = c.now()
	c.hasList = true
}

// InvalidateList clears the cached listing
func (c *InMemoryCache) InvalidateList(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listGen++
	c.list = nil
	c.hasList = false
}

func copyRecord(rec *report.Record) *report.Record {
	out := *rec
	out.CreditAccounts = append([]report.CreditAccount{}, rec.CreditAccounts...)
	return &out
}

func copyList(list []*report.Record) []*report.Record {
	out := make([]*report.Record, len(list))
	for i, rec := range list {
		out[i] = copyRecord(rec)
	}
	return out
}

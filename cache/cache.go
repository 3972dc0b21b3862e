package cache

import (
	"context"
	"time"

	"github.com/liamcoop/creditreports/report"
)

// ReportCache provides an abstraction for caching stored reports.
// This allows swapping between in-memory, Redis, or no caching at all.
// Implementations swallow backend failures and report them as misses.
type ReportCache interface {
	// GetReport returns a cached record, false on miss or expiry
	GetReport(ctx context.Context, id string) (*report.Record, bool)

	// SetReport caches a record under its ID
	SetReport(ctx context.Context, rec *report.Record)

	// GetList returns the cached newest-first listing and the current list
	// generation. The generation is valid on a miss too.
	GetList(ctx context.Context) ([]*report.Record, uint64, bool)

	// SetList caches the newest-first listing read under gen. A listing from a
	// generation that has since been invalidated is never served.
	SetList(ctx context.Context, gen uint64, list []*report.Record)

	// InvalidateList drops the cached listing and advances the generation
	InvalidateList(ctx context.Context)
}

// Config holds configuration for cache behavior
type Config struct {
	// TTL is the time-to-live for cached entries.
	// Set to 0 for no expiration (manual invalidation only)
	TTL time.Duration
}

// DefaultConfig returns the defaults used when nothing is configured
func DefaultConfig() Config {
	return Config{
		TTL: 5 * time.Minute,
	}
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) GetReport(context.Context, string) (*report.Record, bool) { return nil, false }
func (NoopCache) SetReport(context.Context, *report.Record)                {}
func (NoopCache) GetList(context.Context) ([]*report.Record, uint64, bool) { return nil, 0, false }
func (NoopCache) SetList(context.Context, uint64, []*report.Record)        {}
func (NoopCache) InvalidateList(context.Context)                           {}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/liamcoop/creditreports/internal/metrics"
	"github.com/liamcoop/creditreports/report"
)

const (
	reportKeyPrefix = "credit-reports:report:"
	listKey         = "credit-reports:list"
	listVersionKey  = "credit-reports:list:version"
)

// cachedList is the stored listing tagged with the generation it was read under.
type cachedList struct {
	Generation uint64           `json:"generation"`
	Records    []*report.Record `json:"records"`
}

// RedisCache stores JSON-encoded records in Redis.
type RedisCache struct {
	client redis.UniversalClient
	config Config
	logger *slog.Logger
}

// NewRedisCache creates a cache on top of an existing Redis client
func NewRedisCache(client redis.UniversalClient, config Config, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{
		client: client,
		config: config,
		logger: logger,
	}
}

// GetReport retrieves a cached record
func (c *RedisCache) GetReport(ctx context.Context, id string) (*report.Record, bool) {
	var rec report.Record
	if !c.get(ctx, reportKeyPrefix+id, &rec) {
		metrics.CacheMisses.WithLabelValues("report").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("report").Inc()
	return &rec, true
}

// SetReport caches rec for the configured TTL
func (c *RedisCache) SetReport(ctx context.Context, rec *report.Record) {
	if rec == nil {
		return
	}
	c.set(ctx, reportKeyPrefix+rec.ID, rec)
}

// GetList retrieves the cached listing. An entry written under an older
// generation is a miss, so a failed delete cannot resurrect a stale listing.
func (c *RedisCache) GetList(ctx context.Context) ([]*report.Record, uint64, bool) {
	vals, err := c.client.MGet(ctx, listVersionKey, listKey).Result()
	if err != nil {
		c.logger.Warn("redis cache read failed", "key", listKey, "error", err)
		metrics.CacheMisses.WithLabelValues("list").Inc()
		return nil, 0, false
	}

	gen, err := parseGeneration(vals[0])
	if err != nil {
		c.logger.Warn("discarding undecodable list generation", "key", listVersionKey, "error", err)
		metrics.CacheMisses.WithLabelValues("list").Inc()
		return nil, 0, false
	}

	raw, ok := vals[1].(string)
	if !ok {
		metrics.CacheMisses.WithLabelValues("list").Inc()
		return nil, gen, false
	}

	var cached cachedList
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		c.logger.Warn("discarding undecodable cache entry", "key", listKey, "error", err)
		metrics.CacheMisses.WithLabelValues("list").Inc()
		return nil, gen, false
	}
	if cached.Generation != gen {
		metrics.CacheMisses.WithLabelValues("list").Inc()
		return nil, gen, false
	}

	metrics.CacheHits.WithLabelValues("list").Inc()
	if cached.Records == nil {
		cached.Records = []*report.Record{}
	}
	return cached.Records, gen, true
}

// SetList caches the listing read under gen for the configured TTL
func (c *RedisCache) SetList(ctx context.Context, gen uint64, list []*report.Record) {
	if list == nil {
		list = []*report.Record{}
	}
	c.set(ctx, listKey, cachedList{Generation: gen, Records: list})
}

// InvalidateList advances the list generation and deletes the cached listing
func (c *RedisCache) InvalidateList(ctx context.Context) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, listVersionKey)
		pipe.Del(ctx, listKey)
		return nil
	})
	if err != nil {
		c.logger.Warn("failed to invalidate cached report list", "error", err)
	}
}

func parseGeneration(v any) (uint64, error) {
	if v == nil {
		return 0, nil
	}
	str, ok := v.(string)
	if !ok {
		return 0, errors.New("unexpected generation value type")
	}
	return strconv.ParseUint(str, 10, 64)
}

func (c *RedisCache) get(ctx context.Context, key string, dest any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Warn("redis cache read failed", "key", key, "error", err)
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
		return false
	}
	return true
}

func (c *RedisCache) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("failed to encode cache entry", "key", key, "error", err)
		return
	}

	if err := c.client.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		c.logger.Warn("redis cache write failed", "key", key, "error", err)
	}
}

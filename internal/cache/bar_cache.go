package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"CrudeSentinel/internal/model"
)

const defaultPrefix = "bars:"

// BarCacheEntry is the JSON document stored per symbol and interval.
type BarCacheEntry struct {
	Symbol   string        `json:"symbol"`
	Interval string        `json:"interval"`
	Bars     []model.OHLCV `json:"bars"`
	CachedAt time.Time     `json:"cached_at"`
}

// BarCacheStats tracks cache performance.
type BarCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// BarCache stores fetched price bars in Redis so repeated runs inside the
// TTL do not hit the upstream data source.
type BarCache struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string

	mu    sync.Mutex
	stats BarCacheStats
}

func NewBarCache(client *redis.Client, ttl time.Duration) *BarCache {
	return &BarCache{
		redis:  client,
		ttl:    ttl,
		prefix: defaultPrefix,
	}
}

func (c *BarCache) key(symbol, interval string, count int) string {
	return fmt.Sprintf("%s%s:%s:%d", c.prefix, symbol, interval, count)
}

// Get returns the cached bars, or false on a miss. Redis and decode
// errors count as misses.
func (c *BarCache) Get(ctx context.Context, symbol, interval string, count int) ([]model.OHLCV, bool) {
	data, err := c.redis.Get(ctx, c.key(symbol, interval, count)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.record(func(s *BarCacheStats) { s.Misses++ })
		return nil, false
	}
	if err != nil {
		log.WithError(err).WithField("symbol", symbol).Warn("bar cache get failed")
		c.record(func(s *BarCacheStats) { s.Misses++ })
		return nil, false
	}

	var entry BarCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.WithError(err).WithField("symbol", symbol).Warn("bar cache entry corrupt")
		c.record(func(s *BarCacheStats) { s.Misses++ })
		return nil, false
	}

	c.record(func(s *BarCacheStats) { s.Hits++ })
	return entry.Bars, true
}

func (c *BarCache) Set(ctx context.Context, symbol, interval string, count int, bars []model.OHLCV) error {
	entry := BarCacheEntry{
		Symbol:   symbol,
		Interval: interval,
		Bars:     bars,
		CachedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode bar cache entry: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(symbol, interval, count), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("bar cache set: %w", err)
	}
	c.record(func(s *BarCacheStats) { s.Sets++ })
	log.WithFields(log.Fields{
		"symbol":   symbol,
		"interval": interval,
		"bars":     len(bars),
		"ttl":      c.ttl,
	}).Debug("cached bars")
	return nil
}

// Clear removes every entry under the cache prefix.
func (c *BarCache) Clear(ctx context.Context) error {
	var keys []string
	iter := c.redis.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan bar cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...).Err()
}

func (c *BarCache) Stats() BarCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *BarCache) record(fn func(*BarCacheStats)) {
	c.mu.Lock()
	fn(&c.stats)
	c.mu.Unlock()
}

package collector

import (
	"context"

	log "github.com/sirupsen/logrus"

	"CrudeSentinel/internal/cache"
	"CrudeSentinel/internal/model"
)

// CachedFetcher wraps a Fetcher with a Redis bar cache. Cache failures
// never fail a fetch.
type CachedFetcher struct {
	Inner Fetcher
	Cache *cache.BarCache
}

func NewCachedFetcher(inner Fetcher, c *cache.BarCache) *CachedFetcher {
	return &CachedFetcher{Inner: inner, Cache: c}
}

func (f *CachedFetcher) Name() string { return f.Inner.Name() + "+redis" }

func (f *CachedFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	return f.fetch(ctx, symbol, model.IntervalDaily, days, f.Inner.FetchDailyBars)
}

func (f *CachedFetcher) FetchWeeklyBars(ctx context.Context, symbol string, weeks int) ([]model.OHLCV, error) {
	return f.fetch(ctx, symbol, model.IntervalWeekly, weeks, f.Inner.FetchWeeklyBars)
}

type fetchFunc func(ctx context.Context, symbol string, count int) ([]model.OHLCV, error)

func (f *CachedFetcher) fetch(ctx context.Context, symbol string, interval model.Interval, count int, inner fetchFunc) ([]model.OHLCV, error) {
	if bars, ok := f.Cache.Get(ctx, symbol, string(interval), count); ok {
		return bars, nil
	}
	bars, err := inner(ctx, symbol, count)
	if err != nil {
		return nil, err
	}
	if err := f.Cache.Set(ctx, symbol, string(interval), count, bars); err != nil {
		log.WithError(err).WithField("symbol", symbol).Warn("could not cache bars")
	}
	return bars, nil
}

package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"CrudeSentinel/internal/bias"
	"CrudeSentinel/internal/model"
	"CrudeSentinel/internal/pipeline"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price      float64
	DailyData  []model.OHLCV
	WeeklyData []model.OHLCV
	Err        error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, days int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	return generateMockBars(m.Price, days, 24*time.Hour), nil
}

func (m *MockFetcher) FetchWeeklyBars(_ context.Context, _ string, weeks int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.WeeklyData != nil {
		return m.WeeklyData, nil
	}
	return generateMockBars(m.Price, weeks, 7*24*time.Hour), nil
}

// generateMockBars oscillates around basePrice so the mock feed produces
// both overbought and oversold readings.
func generateMockBars(basePrice float64, count int, step time.Duration) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	end := time.Now().Truncate(24 * time.Hour)
	for i := 0; i < count; i++ {
		swing := float64((i%12)-6) * 0.006
		p := basePrice * (1 + swing)
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(count-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector gathers everything one backtest run needs.
type Collector struct {
	Fetcher     Fetcher
	Positioning PositioningFetcher
	Symbol      string
	Interval    model.Interval
	Bars        int
	Market      string
}

// NewCollector creates a new Collector. positioning may be nil.
func NewCollector(fetcher Fetcher, positioning PositioningFetcher, symbol string, interval model.Interval, bars int, market string) *Collector {
	return &Collector{
		Fetcher:     fetcher,
		Positioning: positioning,
		Symbol:      symbol,
		Interval:    interval,
		Bars:        bars,
		Market:      market,
	}
}

// Collect fetches the bar series and the auxiliary feeds. A bar fetch failure
// aborts; a positioning failure only degrades that predicate to unknown.
func (c *Collector) Collect(ctx context.Context) (*pipeline.Input, error) {
	var (
		bars []model.OHLCV
		err  error
	)
	switch c.Interval {
	case model.IntervalWeekly:
		bars, err = c.Fetcher.FetchWeeklyBars(ctx, c.Symbol, c.Bars)
	default:
		bars, err = c.Fetcher.FetchDailyBars(ctx, c.Symbol, c.Bars)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s bars: %w", c.Interval, err)
	}

	in := &pipeline.Input{
		Series: model.BarSeries{
			Symbol:    c.Symbol,
			Interval:  c.Interval,
			Bars:      bars,
			FetchedAt: time.Now(),
		},
	}
	if c.Positioning != nil {
		in.Auxiliary = c.collectPositioning(ctx)
	}

	log.WithFields(log.Fields{
		"symbol": c.Symbol,
		"source": c.Fetcher.Name(),
		"bars":   len(bars),
	}).Info("collected bar series")
	return in, nil
}

func (c *Collector) collectPositioning(ctx context.Context) bias.Inputs {
	reports, err := c.Positioning.FetchPositioning(ctx, c.Market, c.positioningLimit())
	if err != nil {
		log.WithError(err).WithField("source", c.Positioning.Name()).Warn("positioning unavailable, predicate excluded")
		if !errors.Is(err, model.ErrAuxiliaryUnavailable) {
			err = fmt.Errorf("%w: %v", model.ErrAuxiliaryUnavailable, err)
		}
		return bias.Inputs{PositioningErr: err}
	}
	return bias.Inputs{Positioning: reports}
}

// positioningLimit covers the weeks spanned by the bar series plus a margin
// so the first bar has a report to look up.
func (c *Collector) positioningLimit() int {
	weeks := c.Bars
	if c.Interval != model.IntervalWeekly {
		weeks = c.Bars/5 + 1
	}
	if weeks < 48 {
		weeks = 48
	}
	return weeks + 4
}

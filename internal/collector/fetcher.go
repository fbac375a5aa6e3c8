package collector

import (
	"context"

	"CrudeSentinel/internal/model"
)

// Fetcher is a source of historical price bars.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	FetchWeeklyBars(ctx context.Context, symbol string, weeks int) ([]model.OHLCV, error)
	Name() string
}

// PositioningFetcher is a source of commitments-of-traders style reports.
type PositioningFetcher interface {
	FetchPositioning(ctx context.Context, market string, limit int) ([]model.PositioningReport, error)
	Name() string
}

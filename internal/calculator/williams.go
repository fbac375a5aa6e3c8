package calculator

import (
	"fmt"

	"CrudeSentinel/internal/model"
)

// DefaultWilliamsPeriod is the lookback used when none is configured.
const DefaultWilliamsPeriod = 10

// WilliamsR computes Williams %R aligned 1:1 with bars. The first period-1
// points are undefined, as is any point whose window has zero range.
// A series shorter than period yields all-undefined points, not an error.
func WilliamsR(bars []model.OHLCV, period int) ([]model.OscillatorPoint, error) {
	if period <= 0 {
		return nil, fmt.Errorf("williams period %d: %w", period, model.ErrInvalidParameter)
	}
	points := make([]model.OscillatorPoint, len(bars))
	for i, b := range bars {
		if i < period-1 {
			points[i] = model.Undefined(b.Time)
			continue
		}
		high, low, err := WindowRange(bars, i, period)
		if err != nil {
			return nil, err
		}
		points[i] = model.OscillatorPoint{Time: b.Time, Value: RangePosition(b.Close, high, low)}
	}
	return points, nil
}

// Values extracts the raw readings, NaN where undefined.
func Values(points []model.OscillatorPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

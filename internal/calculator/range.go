package calculator

import (
	"fmt"
	"math"

	"CrudeSentinel/internal/model"
)

// WindowRange scans the trailing `period` bars ending at index end and returns
// the highest high and lowest low.
func WindowRange(bars []model.OHLCV, end, period int) (high, low float64, err error) {
	if period <= 0 {
		return 0, 0, fmt.Errorf("period %d: %w", period, model.ErrInvalidParameter)
	}
	if end < 0 || end >= len(bars) {
		return 0, 0, fmt.Errorf("index %d out of range [0,%d)", end, len(bars))
	}
	start := end - period + 1
	if start < 0 {
		return 0, 0, fmt.Errorf("need %d bars ending at %d: %w", period, end, model.ErrInsufficientData)
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i <= end; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// RangePosition returns where price sits within [low, high] on the
// Williams scale: 0 at the high, -100 at the low. A zero-width range has no
// position and yields NaN.
func RangePosition(price, high, low float64) float64 {
	if high == low {
		return math.NaN()
	}
	return -100 * (high - price) / (high - low)
}

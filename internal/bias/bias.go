// Package bias holds the auxiliary market-sentiment predicates that can veto
// an oscillator Buy: seasonality, positioning and bullish reversal candles.
// Every predicate is pure; fetching their inputs happens in collector.
package bias

import (
	"fmt"
	"sort"
	"time"

	"CrudeSentinel/internal/model"
)

// Season is the seasonal reading for a calendar month.
type Season int

const (
	SeasonNeutral Season = iota
	SeasonBullish
)

// Position is the directional reading of net positioning.
type Position int

const (
	PositionShort Position = iota
	PositionLong
)

// MonthSet is the set of seasonally bullish months.
type MonthSet map[time.Month]bool

// NewMonthSet builds a set from month numbers 1..12.
func NewMonthSet(months ...int) (MonthSet, error) {
	set := make(MonthSet, len(months))
	for _, m := range months {
		if m < 1 || m > 12 {
			return nil, fmt.Errorf("month %d: %w", m, model.ErrInvalidParameter)
		}
		set[time.Month(m)] = true
	}
	return set, nil
}

// Months returns the members in calendar order.
func (s MonthSet) Months() []int {
	out := make([]int, 0, len(s))
	for m := range s {
		out = append(out, int(m))
	}
	sort.Ints(out)
	return out
}

// Seasonality maps a month to its seasonal reading.
func Seasonality(month time.Month, bullish MonthSet) Season {
	if bullish[month] {
		return SeasonBullish
	}
	return SeasonNeutral
}

// Positioning maps net long-minus-short contracts to a direction. Zero net is
// Short unless zeroIsLong is set.
func Positioning(net float64, zeroIsLong bool) Position {
	switch {
	case net > 0:
		return PositionLong
	case net < 0:
		return PositionShort
	case zeroIsLong:
		return PositionLong
	default:
		return PositionShort
	}
}

// BullishReversal checks the last two bars for an engulfing-style reversal:
// a bullish body that opens below the prior close and closes above the prior open.
func BullishReversal(bars []model.OHLCV) (bool, error) {
	if len(bars) < 2 {
		return false, fmt.Errorf("reversal candle needs 2 bars, got %d: %w", len(bars), model.ErrInsufficientData)
	}
	prev, last := bars[len(bars)-2], bars[len(bars)-1]
	return last.Close > last.Open && last.Open < prev.Close && last.Close > prev.Open, nil
}

// LatestAsOf returns the most recent report dated on or before t.
// Reports must be sorted by ReportDate ascending.
func LatestAsOf(reports []model.PositioningReport, t time.Time) (model.PositioningReport, bool) {
	i := sort.Search(len(reports), func(i int) bool { return reports[i].ReportDate.After(t) })
	if i == 0 {
		return model.PositioningReport{}, false
	}
	return reports[i-1], true
}

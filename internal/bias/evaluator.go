package bias

import (
	"sort"
	"time"

	"CrudeSentinel/internal/model"
)

// Settings selects which predicates take part in the Buy combination.
type Settings struct {
	Seasonality    bool
	BullishMonths  MonthSet
	Positioning    bool
	ZeroNetIsLong  bool
	ReversalCandle bool
}

// AnyEnabled reports whether at least one predicate is switched on.
func (s Settings) AnyEnabled() bool {
	return s.Seasonality || s.Positioning || s.ReversalCandle
}

// Inputs are the raw auxiliary feeds. A nil or failed positioning feed makes
// that predicate read Unknown.
type Inputs struct {
	Positioning    []model.PositioningReport
	PositioningErr error
}

// Evaluator produces per-bar readings for the enabled predicates.
type Evaluator struct {
	settings Settings
	reports  []model.PositioningReport
	feedOK   bool
}

// NewEvaluator copies and sorts the positioning reports so callers keep
// ownership of their slice.
func NewEvaluator(settings Settings, in Inputs) *Evaluator {
	reports := append([]model.PositioningReport(nil), in.Positioning...)
	sort.SliceStable(reports, func(i, j int) bool { return reports[i].ReportDate.Before(reports[j].ReportDate) })
	return &Evaluator{
		settings: settings,
		reports:  reports,
		feedOK:   in.PositioningErr == nil && len(reports) > 0,
	}
}

// Readings evaluates every enabled predicate for bar i. Disabled predicates
// are omitted from the result.
func (e *Evaluator) Readings(bars []model.OHLCV, i int) map[string]model.Reading {
	out := make(map[string]model.Reading, 3)
	if e.settings.Seasonality {
		out["seasonality"] = e.season(bars[i].Time)
	}
	if e.settings.Positioning {
		out["positioning"] = e.position(bars[i].Time)
	}
	if e.settings.ReversalCandle {
		out["reversal_candle"] = reversal(bars[:i+1])
	}
	return out
}

// Allows reports whether a Buy at bar i survives the AND-combination.
// Unknown readings are excluded rather than counted either way.
func (e *Evaluator) Allows(bars []model.OHLCV, i int) bool {
	for _, r := range e.Readings(bars, i) {
		if r == model.ReadingNotBullish {
			return false
		}
	}
	return true
}

func (e *Evaluator) season(t time.Time) model.Reading {
	if Seasonality(t.Month(), e.settings.BullishMonths) == SeasonBullish {
		return model.ReadingBullish
	}
	return model.ReadingNotBullish
}

func (e *Evaluator) position(t time.Time) model.Reading {
	if !e.feedOK {
		return model.ReadingUnknown
	}
	rep, ok := LatestAsOf(e.reports, t)
	if !ok {
		return model.ReadingUnknown
	}
	if Positioning(rep.Net(), e.settings.ZeroNetIsLong) == PositionLong {
		return model.ReadingBullish
	}
	return model.ReadingNotBullish
}

func reversal(bars []model.OHLCV) model.Reading {
	ok, err := BullishReversal(bars)
	if err != nil {
		return model.ReadingUnknown
	}
	if ok {
		return model.ReadingBullish
	}
	return model.ReadingNotBullish
}

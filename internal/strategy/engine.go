package strategy

import (
	"fmt"

	"CrudeSentinel/internal/bias"
	"CrudeSentinel/internal/model"
)

// Generate maps oscillator readings to per-bar signals. points and bars must
// be aligned. When aux is non-nil, a Buy also needs every enabled auxiliary
// predicate with a known reading to be bullish; a vetoed Buy becomes Hold.
func Generate(points []model.OscillatorPoint, bars []model.OHLCV, rules RuleSet, aux *bias.Evaluator) ([]model.Signal, error) {
	if len(points) != len(bars) {
		return nil, fmt.Errorf("oscillator has %d points for %d bars: %w", len(points), len(bars), model.ErrInvalidParameter)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	signals := make([]model.Signal, len(points))
	for i, p := range points {
		kind := classify(points, i, rules)
		if kind == model.SignalBuy && aux != nil && !aux.Allows(bars, i) {
			kind = model.SignalHold
		}
		signals[i] = model.Signal{Time: bars[i].Time, Kind: kind, Close: bars[i].Close}
		if p.Defined() {
			v := p.Value
			signals[i].Value = &v
		}
	}
	return signals, nil
}

func classify(points []model.OscillatorPoint, i int, rules RuleSet) model.SignalKind {
	if !points[i].Defined() {
		return model.SignalNone
	}
	switch rules.Mode {
	case RuleThreshold:
		return thresholdSignal(points[i], rules)
	case RuleCrossover:
		if crossoverFires(points, i, rules) {
			return model.SignalBuy
		}
		return model.SignalNone
	default:
		if crossoverFires(points, i, rules) {
			return model.SignalBuy
		}
		if kind := thresholdSignal(points[i], rules); kind != model.SignalBuy {
			return kind
		}
		return model.SignalHold
	}
}

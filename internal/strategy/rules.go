package strategy

import (
	"fmt"
	"math"

	"CrudeSentinel/internal/model"
)

// RuleMode selects which rule family produces signals.
type RuleMode string

const (
	// RuleThreshold emits Buy below oversold, Sell above overbought, Hold otherwise.
	RuleThreshold RuleMode = "threshold"
	// RuleCrossover emits Buy only on a one-step drop from overbought to oversold.
	RuleCrossover RuleMode = "crossover"
	// RuleBoth takes Buy from the crossover rule and Sell/Hold from the threshold rule.
	RuleBoth RuleMode = "both"
)

const (
	DefaultOversold   = -80.0
	DefaultOverbought = -20.0
)

// RuleSet is the immutable configuration of the signal rules.
type RuleSet struct {
	Mode       RuleMode
	Oversold   float64
	Overbought float64
}

// DefaultRuleSet mirrors the classic Larry Williams crude oil setup.
func DefaultRuleSet() RuleSet {
	return RuleSet{Mode: RuleCrossover, Oversold: DefaultOversold, Overbought: DefaultOverbought}
}

// Validate checks the thresholds lie on the oscillator scale and are ordered.
func (r RuleSet) Validate() error {
	switch r.Mode {
	case RuleThreshold, RuleCrossover, RuleBoth:
	default:
		return fmt.Errorf("rule mode %q: %w", r.Mode, model.ErrInvalidParameter)
	}
	for _, v := range []float64{r.Oversold, r.Overbought} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("threshold %v must be finite: %w", v, model.ErrInvalidParameter)
		}
	}
	if r.Oversold < -100 || r.Overbought > 0 {
		return fmt.Errorf("thresholds must lie within [-100, 0]: %w", model.ErrInvalidParameter)
	}
	if r.Oversold >= r.Overbought {
		return fmt.Errorf("oversold %.1f must be below overbought %.1f: %w", r.Oversold, r.Overbought, model.ErrInvalidParameter)
	}
	return nil
}

// thresholdSignal classifies a single reading.
func thresholdSignal(p model.OscillatorPoint, r RuleSet) model.SignalKind {
	switch {
	case !p.Defined():
		return model.SignalNone
	case p.Value < r.Oversold:
		return model.SignalBuy
	case p.Value > r.Overbought:
		return model.SignalSell
	default:
		return model.SignalHold
	}
}

// crossoverFires reports a drop from above overbought at i-1 to below
// oversold at i. Never fires at i == 0 or across an undefined reading.
func crossoverFires(points []model.OscillatorPoint, i int, r RuleSet) bool {
	if i == 0 {
		return false
	}
	return points[i-1].Overbought(r.Overbought) && points[i].Oversold(r.Oversold)
}

// Package backtest walks each Buy signal forward through the bar series and
// records how the hypothetical position would have closed.
package backtest

import (
	"fmt"
	"math"

	"CrudeSentinel/internal/model"
)

const (
	DefaultStopLossPct = 2.0
	DefaultTargetPct   = 4.0
	DefaultHorizonBars = 5
)

// Params is the immutable exit policy of the simulator.
type Params struct {
	StopLossPct float64
	TargetPct   float64
	HorizonBars int
	// Overbought is the oscillator level that triggers a reversal exit.
	Overbought float64
}

// DefaultParams returns the stock 2% stop / 4% target / 5 bar policy.
func DefaultParams() Params {
	return Params{
		StopLossPct: DefaultStopLossPct,
		TargetPct:   DefaultTargetPct,
		HorizonBars: DefaultHorizonBars,
		Overbought:  -20,
	}
}

// Validate checks the exit policy is usable.
func (p Params) Validate() error {
	if !finite(p.StopLossPct) || !finite(p.TargetPct) || !finite(p.Overbought) {
		return fmt.Errorf("stop %v, target %v, overbought %v must be finite: %w",
			p.StopLossPct, p.TargetPct, p.Overbought, model.ErrInvalidParameter)
	}
	if p.StopLossPct <= 0 || p.StopLossPct >= 100 {
		return fmt.Errorf("stop loss %.2f%% out of (0,100): %w", p.StopLossPct, model.ErrInvalidParameter)
	}
	if p.TargetPct <= 0 {
		return fmt.Errorf("target %.2f%% must be positive: %w", p.TargetPct, model.ErrInvalidParameter)
	}
	if p.HorizonBars <= 0 {
		return fmt.Errorf("horizon %d bars must be positive: %w", p.HorizonBars, model.ErrInvalidParameter)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Simulate opens one independent trade per Buy signal and closes it with the
// first rule to fire, checked in order at each forward bar:
//
//  1. close <= stop loss
//  2. close >= target
//  3. oscillator overbought (reversal), else the final horizon bar (time limit)
//
// A trade whose horizon runs past the end of the series without an exit is
// kept with reason Unresolved and no exit.
func Simulate(bars []model.OHLCV, points []model.OscillatorPoint, signals []model.Signal, p Params) ([]model.Trade, error) {
	if len(signals) != len(bars) || len(points) != len(bars) {
		return nil, fmt.Errorf("misaligned inputs: %d bars, %d points, %d signals: %w",
			len(bars), len(points), len(signals), model.ErrInvalidParameter)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var trades []model.Trade
	for i, sig := range signals {
		if sig.Kind != model.SignalBuy {
			continue
		}
		trades = append(trades, walk(bars, points, i, p))
	}
	return trades, nil
}

func walk(bars []model.OHLCV, points []model.OscillatorPoint, i int, p Params) model.Trade {
	entry := bars[i].Close
	t := model.Trade{
		EntryIndex: i,
		EntryTime:  bars[i].Time,
		EntryPrice: entry,
		StopLoss:   entry * (1 - p.StopLossPct/100),
		Target:     entry * (1 + p.TargetPct/100),
		Reason:     model.ExitUnresolved,
	}

	for j := 1; j <= p.HorizonBars; j++ {
		k := i + j
		if k >= len(bars) {
			t.BarsHeld = j - 1
			return t
		}
		price := bars[k].Close
		var reason model.ExitReason
		switch {
		case price <= t.StopLoss:
			reason = model.ExitStopLoss
		case price >= t.Target:
			reason = model.ExitTarget
		case points[k].Overbought(p.Overbought):
			reason = model.ExitOscillatorReversal
		case j == p.HorizonBars:
			reason = model.ExitTimeLimit
		default:
			continue
		}
		pnl := price - entry
		ret := 0.0
		if entry != 0 {
			ret = pnl / entry * 100
		}
		t.Reason = reason
		t.BarsHeld = j
		t.Exit = &model.TradeExit{Index: k, Time: bars[k].Time, Price: price, PnL: pnl, ReturnPct: ret}
		return t
	}
	return t
}

// Package pipeline chains the pure stages of a backtest:
// bars → oscillator → signals → trades → summary.
package pipeline

import (
	"fmt"

	"CrudeSentinel/internal/backtest"
	"CrudeSentinel/internal/bias"
	"CrudeSentinel/internal/calculator"
	"CrudeSentinel/internal/model"
	"CrudeSentinel/internal/strategy"
)

// Settings is the full immutable strategy configuration for one run.
type Settings struct {
	WilliamsPeriod int
	Rules          strategy.RuleSet
	Simulation     backtest.Params
	Auxiliary      bias.Settings
}

// DefaultSettings returns the stock crude oil configuration.
func DefaultSettings() Settings {
	return Settings{
		WilliamsPeriod: calculator.DefaultWilliamsPeriod,
		Rules:          strategy.DefaultRuleSet(),
		Simulation:     backtest.DefaultParams(),
	}
}

// Input is a fully materialised bar series plus raw auxiliary feeds.
type Input struct {
	Series    model.BarSeries
	Auxiliary bias.Inputs
}

// Run executes every stage. Only malformed input or invalid settings fail the
// run; a short series produces undefined readings and a warning.
func Run(in Input, s Settings) (*model.BacktestReport, error) {
	if err := in.Series.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s series: %w", in.Series.Symbol, err)
	}
	// reversal exits use the same overbought level as the signal rules
	sim := s.Simulation
	sim.Overbought = s.Rules.Overbought

	bars := in.Series.Bars
	points, err := calculator.WilliamsR(bars, s.WilliamsPeriod)
	if err != nil {
		return nil, fmt.Errorf("compute williams %%R: %w", err)
	}

	var aux *bias.Evaluator
	if s.Auxiliary.AnyEnabled() {
		aux = bias.NewEvaluator(s.Auxiliary, in.Auxiliary)
	}
	signals, err := strategy.Generate(points, bars, s.Rules, aux)
	if err != nil {
		return nil, fmt.Errorf("generate signals: %w", err)
	}

	trades, err := backtest.Simulate(bars, points, signals, sim)
	if err != nil {
		return nil, fmt.Errorf("simulate trades: %w", err)
	}

	rep := &model.BacktestReport{
		Symbol:     in.Series.Symbol,
		Interval:   in.Series.Interval,
		Series:     in.Series,
		Oscillator: points,
		Signals:    signals,
		Trades:     trades,
		Summary:    backtest.Summarize(trades),
	}
	if need := s.WilliamsPeriod + sim.HorizonBars; len(bars) < need {
		rep.Warnings = append(rep.Warnings,
			fmt.Sprintf("%v: %d bars, need %d for period %d and horizon %d",
				model.ErrInsufficientData, len(bars), need, s.WilliamsPeriod, sim.HorizonBars))
	}
	if s.Auxiliary.Positioning && in.Auxiliary.PositioningErr != nil {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("positioning excluded: %v", in.Auxiliary.PositioningErr))
	}
	return rep, nil
}

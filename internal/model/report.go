package model

import "time"

// ExitCounts tallies trades per exit reason.
type ExitCounts map[ExitReason]int

// Summary aggregates a trade ledger. Return figures cover resolved trades only.
// A resolved trade with zero P&L is Flat, neither a win nor a loss, but it
// still counts toward the WinRate denominator.
type Summary struct {
	TotalTrades    int        `json:"total_trades"`
	Resolved       int        `json:"resolved"`
	Unresolved     int        `json:"unresolved"`
	Wins           int        `json:"wins"`
	Losses         int        `json:"losses"`
	Flat           int        `json:"flat"`
	WinRate        float64    `json:"win_rate"`
	TotalPnL       float64    `json:"total_pnl"`
	TotalReturnPct float64    `json:"total_return_pct"`
	AvgReturnPct   float64    `json:"avg_return_pct"`
	ByReason       ExitCounts `json:"by_reason"`
}

// BacktestReport is the full output of one pipeline run.
type BacktestReport struct {
	RunID      string            `json:"run_id"`
	Symbol     string            `json:"symbol"`
	Interval   Interval          `json:"interval"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Series     BarSeries         `json:"-"`
	Oscillator []OscillatorPoint `json:"oscillator"`
	Signals    []Signal          `json:"signals"`
	Trades     []Trade           `json:"trades"`
	Summary    Summary           `json:"summary"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// BuySignals returns only the Buy entries of the signal series.
func (r *BacktestReport) BuySignals() []Signal {
	var out []Signal
	for _, s := range r.Signals {
		if s.Kind == SignalBuy {
			out = append(out, s)
		}
	}
	return out
}

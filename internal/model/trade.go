package model

import "time"

// ExitReason records which rule closed a simulated trade.
type ExitReason string

const (
	ExitStopLoss           ExitReason = "STOP_LOSS"
	ExitTarget             ExitReason = "TARGET"
	ExitOscillatorReversal ExitReason = "OSCILLATOR_REVERSAL"
	ExitTimeLimit          ExitReason = "TIME_LIMIT"
	// ExitUnresolved marks an entry whose horizon ran past the end of the series.
	ExitUnresolved ExitReason = "UNRESOLVED"
)

// TradeExit is the closing side of a resolved trade.
type TradeExit struct {
	Index     int       `json:"index"`
	Time      time.Time `json:"time"`
	Price     float64   `json:"price"`
	PnL       float64   `json:"pnl"`
	ReturnPct float64   `json:"return_pct"`
}

// Trade is one simulated entry and its outcome. Exit is nil when unresolved.
type Trade struct {
	EntryIndex int        `json:"entry_index"`
	EntryTime  time.Time  `json:"entry_time"`
	EntryPrice float64    `json:"entry_price"`
	StopLoss   float64    `json:"stop_loss"`
	Target     float64    `json:"target"`
	Reason     ExitReason `json:"reason"`
	BarsHeld   int        `json:"bars_held"`
	Exit       *TradeExit `json:"exit"`
}

// Resolved reports whether an exit rule fired.
func (t Trade) Resolved() bool { return t.Exit != nil }

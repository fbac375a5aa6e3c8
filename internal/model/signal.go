package model

import "time"

// SignalKind is the discrete per-bar state.
type SignalKind string

const (
	// SignalNone means no opinion; distinct from SignalHold.
	SignalNone SignalKind = ""
	SignalBuy  SignalKind = "BUY"
	SignalSell SignalKind = "SELL"
	SignalHold SignalKind = "HOLD"
)

func (k SignalKind) String() string {
	if k == SignalNone {
		return "NONE"
	}
	return string(k)
}

// Signal attaches a state to a bar.
type Signal struct {
	Time  time.Time  `json:"time"`
	Kind  SignalKind `json:"kind"`
	Close float64    `json:"close"`
	// Value is the oscillator reading behind the signal, nil when undefined.
	Value *float64 `json:"williams_r"`
}

// Reading is the tri-state output of an auxiliary predicate.
type Reading int

const (
	// ReadingUnknown excludes the predicate from the combination.
	ReadingUnknown Reading = iota
	ReadingBullish
	ReadingNotBullish
)

func (r Reading) String() string {
	switch r {
	case ReadingBullish:
		return "bullish"
	case ReadingNotBullish:
		return "not_bullish"
	default:
		return "unknown"
	}
}

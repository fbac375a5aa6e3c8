package model

import (
	"fmt"
	"math"
	"time"
)

// Interval is the bar size requested from a data source.
type Interval string

const (
	IntervalDaily  Interval = "1d"
	IntervalWeekly Interval = "1wk"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume,omitempty"`
}

// BarSeries is an ordered run of bars for one symbol and interval.
type BarSeries struct {
	Symbol    string    `json:"symbol"`
	Interval  Interval  `json:"interval"`
	Bars      []OHLCV   `json:"bars"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Len returns the number of bars.
func (s *BarSeries) Len() int { return len(s.Bars) }

// Closes extracts the closing prices.
func (s *BarSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Validate rejects the whole series on the first corrupted bar.
func (s *BarSeries) Validate() error {
	return ValidateBars(s.Bars)
}

// ValidateBars checks that every price is finite and non-negative, high >= low,
// and that timestamps are set and strictly increasing.
func ValidateBars(bars []OHLCV) error {
	for i, b := range bars {
		if b.Time.IsZero() {
			return &MalformedBarError{Index: i, Reason: "missing timestamp"}
		}
		for _, p := range [...]struct {
			name string
			v    float64
		}{{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close}} {
			if math.IsNaN(p.v) || math.IsInf(p.v, 0) {
				return &MalformedBarError{Index: i, Reason: fmt.Sprintf("%s is not finite", p.name)}
			}
			if p.v < 0 {
				return &MalformedBarError{Index: i, Reason: fmt.Sprintf("%s is negative", p.name)}
			}
		}
		if b.High < b.Low {
			return &MalformedBarError{Index: i, Reason: fmt.Sprintf("high %.4f below low %.4f", b.High, b.Low)}
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return &MalformedBarError{Index: i, Reason: "timestamp not after previous bar"}
		}
	}
	return nil
}

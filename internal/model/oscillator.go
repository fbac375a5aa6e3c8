package model

import (
	"encoding/json"
	"math"
	"time"
)

// OscillatorPoint is one Williams %R reading aligned with a bar.
// Value is NaN when the reading is undefined (warm-up or zero-range window).
type OscillatorPoint struct {
	Time  time.Time
	Value float64
}

// Undefined returns a point with no reading.
func Undefined(t time.Time) OscillatorPoint {
	return OscillatorPoint{Time: t, Value: math.NaN()}
}

// Defined reports whether the point carries a real reading.
func (p OscillatorPoint) Defined() bool { return !math.IsNaN(p.Value) }

// Overbought reports a defined reading strictly above the threshold.
func (p OscillatorPoint) Overbought(threshold float64) bool {
	return p.Defined() && p.Value > threshold
}

// Oversold reports a defined reading strictly below the threshold.
func (p OscillatorPoint) Oversold(threshold float64) bool {
	return p.Defined() && p.Value < threshold
}

// MarshalJSON encodes undefined readings as null.
func (p OscillatorPoint) MarshalJSON() ([]byte, error) {
	out := struct {
		Time  time.Time `json:"time"`
		Value *float64  `json:"value"`
	}{Time: p.Time}
	if p.Defined() {
		v := p.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

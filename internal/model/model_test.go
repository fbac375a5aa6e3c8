package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(day int, o, h, l, c float64) OHLCV {
	return OHLCV{Time: time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC), Open: o, High: h, Low: l, Close: c}
}

func TestValidateBars(t *testing.T) {
	good := []OHLCV{bar(3, 70, 71, 69, 70.5), bar(4, 70.5, 72, 70, 71.8)}
	require.NoError(t, ValidateBars(good))
	require.NoError(t, ValidateBars(nil))

	tests := []struct {
		name  string
		bars  []OHLCV
		index int
	}{
		{"missing time", []OHLCV{{Open: 1, High: 1, Low: 1, Close: 1}}, 0},
		{"nan close", []OHLCV{good[0], bar(4, 1, 1, 1, math.NaN())}, 1},
		{"inf high", []OHLCV{bar(3, 1, math.Inf(1), 1, 1)}, 0},
		{"negative open", []OHLCV{bar(3, -1, 1, 0, 1)}, 0},
		{"high below low", []OHLCV{good[0], bar(4, 70, 69, 71, 70)}, 1},
		{"duplicate time", []OHLCV{good[0], bar(3, 70, 71, 69, 70)}, 1},
		{"out of order", []OHLCV{good[1], good[0]}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBars(tt.bars)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedBar))
			var mbe *MalformedBarError
			require.True(t, errors.As(err, &mbe))
			assert.Equal(t, tt.index, mbe.Index)
		})
	}
}

func TestBarSeries(t *testing.T) {
	s := BarSeries{Symbol: "CL=F", Bars: []OHLCV{bar(3, 70, 71, 69, 70.5), bar(4, 70.5, 72, 70, 71.8)}}
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []float64{70.5, 71.8}, s.Closes())
	assert.NoError(t, s.Validate())
}

func TestOscillatorPoint(t *testing.T) {
	at := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	u := Undefined(at)
	assert.False(t, u.Defined())
	assert.False(t, u.Overbought(-20), "undefined is never overbought")
	assert.False(t, u.Oversold(-80), "undefined is never oversold")

	p := OscillatorPoint{Time: at, Value: -85}
	assert.True(t, p.Oversold(-80))
	assert.False(t, p.Overbought(-20))
	assert.False(t, OscillatorPoint{Value: -80}.Oversold(-80), "threshold is strict")
}

func TestOscillatorPoint_JSON(t *testing.T) {
	at := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	data, err := json.Marshal([]OscillatorPoint{Undefined(at), {Time: at, Value: -42.5}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"time":"2025-03-03T00:00:00Z","value":null},{"time":"2025-03-03T00:00:00Z","value":-42.5}]`, string(data))
}

func TestSignalKindString(t *testing.T) {
	assert.Equal(t, "NONE", SignalNone.String())
	assert.Equal(t, "BUY", SignalBuy.String())
	assert.Equal(t, "unknown", ReadingUnknown.String())
	assert.Equal(t, "not_bullish", ReadingNotBullish.String())
}

func TestBuySignals(t *testing.T) {
	r := &BacktestReport{Signals: []Signal{{Kind: SignalHold}, {Kind: SignalBuy}, {Kind: SignalNone}, {Kind: SignalBuy}}}
	assert.Len(t, r.BuySignals(), 2)
}

func TestPositioningNet(t *testing.T) {
	assert.Equal(t, -50.0, PositioningReport{Long: 100, Short: 150}.Net())
}

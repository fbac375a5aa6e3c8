package pipeline

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"CrudeSentinel/internal/bias"
	"CrudeSentinel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

// exampleSeries is a 15 bar series whose %R(10) reads -15 at bar 9 and -85 at
// bar 10, then closes at 48.50 two bars after a 50.00 entry.
func exampleSeries() model.BarSeries {
	bars := make([]model.OHLCV, 0, 15)
	add := func(o, h, l, c float64) {
		bars = append(bars, model.OHLCV{Time: day0.AddDate(0, 0, len(bars)), Open: o, High: h, Low: l, Close: c})
	}
	for i := 0; i < 9; i++ {
		add(57, 67, 47, 57)
	}
	add(60, 67, 47, 64)
	add(55, 56, 49.5, 50)
	add(50, 50, 49, 49.5)
	add(49.5, 49.6, 48.3, 48.5)
	add(48.5, 49.5, 48, 49)
	add(48.5, 49.5, 48, 49)
	return model.BarSeries{Symbol: "CL=F", Interval: model.IntervalDaily, Bars: bars}
}

func TestRun_EndToEndExample(t *testing.T) {
	rep, err := Run(Input{Series: exampleSeries()}, DefaultSettings())
	require.NoError(t, err)

	require.Len(t, rep.Oscillator, 15)
	for i := 0; i < 9; i++ {
		assert.False(t, rep.Oscillator[i].Defined(), "index %d", i)
	}
	assert.InDelta(t, -15, rep.Oscillator[9].Value, 1e-9)
	assert.InDelta(t, -85, rep.Oscillator[10].Value, 1e-9)

	buys := rep.BuySignals()
	require.Len(t, buys, 1)
	assert.Equal(t, rep.Series.Bars[10].Time, buys[0].Time)

	require.Len(t, rep.Trades, 1)
	tr := rep.Trades[0]
	assert.Equal(t, 10, tr.EntryIndex)
	assert.Equal(t, 50.0, tr.EntryPrice)
	assert.InDelta(t, 49.0, tr.StopLoss, 1e-9)
	assert.InDelta(t, 52.0, tr.Target, 1e-9)
	assert.Equal(t, model.ExitStopLoss, tr.Reason)
	require.NotNil(t, tr.Exit)
	assert.Equal(t, 12, tr.Exit.Index)
	assert.Equal(t, 48.5, tr.Exit.Price)
	assert.InDelta(t, -1.5, tr.Exit.PnL, 1e-9)
	assert.InDelta(t, -3.0, tr.Exit.ReturnPct, 1e-9)

	assert.Equal(t, 1, rep.Summary.Losses)
	assert.Empty(t, rep.Warnings)
}

func TestRun_RejectsMalformedSeries(t *testing.T) {
	series := exampleSeries()
	series.Bars[4].Close = math.NaN()
	_, err := Run(Input{Series: series}, DefaultSettings())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMalformedBar))

	series = exampleSeries()
	series.Bars[6].Time = series.Bars[5].Time
	_, err = Run(Input{Series: series}, DefaultSettings())
	var mbe *model.MalformedBarError
	require.True(t, errors.As(err, &mbe))
	assert.Equal(t, 6, mbe.Index)
}

func TestRun_ShortSeriesWarns(t *testing.T) {
	series := exampleSeries()
	series.Bars = series.Bars[:8]
	rep, err := Run(Input{Series: series}, DefaultSettings())
	require.NoError(t, err)
	require.Len(t, rep.Oscillator, 8)
	assert.Empty(t, rep.Trades)
	require.Len(t, rep.Warnings, 1)
	assert.True(t, strings.HasPrefix(rep.Warnings[0], model.ErrInsufficientData.Error()))
}

func TestRun_PositioningUnavailableIsExcluded(t *testing.T) {
	s := DefaultSettings()
	s.Auxiliary.Positioning = true
	rep, err := Run(Input{
		Series:    exampleSeries(),
		Auxiliary: bias.Inputs{PositioningErr: model.ErrAuxiliaryUnavailable},
	}, s)
	require.NoError(t, err)
	assert.Len(t, rep.BuySignals(), 1)
	require.Len(t, rep.Warnings, 1)
	assert.Contains(t, rep.Warnings[0], "positioning excluded")
}

func TestRun_PositioningVetoesBuy(t *testing.T) {
	s := DefaultSettings()
	s.Auxiliary.Positioning = true
	in := Input{Series: exampleSeries()}
	in.Auxiliary.Positioning = []model.PositioningReport{
		{Market: "CRUDE OIL", ReportDate: day0.AddDate(0, 0, -3), Long: 100, Short: 300},
	}
	rep, err := Run(in, s)
	require.NoError(t, err)
	assert.Empty(t, rep.BuySignals())
	assert.Empty(t, rep.Trades)
	assert.Equal(t, model.SignalHold, rep.Signals[10].Kind)
}

func TestRun_InvalidSettings(t *testing.T) {
	s := DefaultSettings()
	s.WilliamsPeriod = 0
	_, err := Run(Input{Series: exampleSeries()}, s)
	assert.True(t, errors.Is(err, model.ErrInvalidParameter))

	s = DefaultSettings()
	s.Simulation.HorizonBars = 0
	_, err = Run(Input{Series: exampleSeries()}, s)
	assert.True(t, errors.Is(err, model.ErrInvalidParameter))
}

func TestRun_Idempotent(t *testing.T) {
	a, err := Run(Input{Series: exampleSeries()}, DefaultSettings())
	require.NoError(t, err)
	b, err := Run(Input{Series: exampleSeries()}, DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, a.Signals, b.Signals)
	assert.Equal(t, a.Trades, b.Trades)
	assert.Equal(t, a.Summary, b.Summary)
}

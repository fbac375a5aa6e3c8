package strategy

import (
	"errors"
	"math"
	"testing"
	"time"

	"CrudeSentinel/internal/bias"
	"CrudeSentinel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

// series builds aligned bars and points from readings; NaN means undefined.
func series(values ...float64) ([]model.OscillatorPoint, []model.OHLCV) {
	points := make([]model.OscillatorPoint, len(values))
	bars := make([]model.OHLCV, len(values))
	for i, v := range values {
		ts := start.AddDate(0, 0, i)
		bars[i] = model.OHLCV{Time: ts, Open: 50, High: 51, Low: 49, Close: 50}
		points[i] = model.OscillatorPoint{Time: ts, Value: v}
	}
	return points, bars
}

func kinds(signals []model.Signal) []model.SignalKind {
	out := make([]model.SignalKind, len(signals))
	for i, s := range signals {
		out[i] = s.Kind
	}
	return out
}

var nan = math.NaN()

func TestGenerate_Threshold(t *testing.T) {
	points, bars := series(nan, -90, -80, -50, -20, -5)
	rules := RuleSet{Mode: RuleThreshold, Oversold: -80, Overbought: -20}

	signals, err := Generate(points, bars, rules, nil)
	require.NoError(t, err)
	assert.Equal(t, []model.SignalKind{
		model.SignalNone, model.SignalBuy, model.SignalHold, model.SignalHold, model.SignalHold, model.SignalSell,
	}, kinds(signals))
	assert.Nil(t, signals[0].Value)
	require.NotNil(t, signals[1].Value)
	assert.Equal(t, -90.0, *signals[1].Value)
}

func TestGenerate_Crossover(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []model.SignalKind
	}{
		{
			name:   "sharp drop fires",
			values: []float64{-10, -90},
			want:   []model.SignalKind{model.SignalNone, model.SignalBuy},
		},
		{
			name:   "oversold at index zero never fires",
			values: []float64{-95, -50},
			want:   []model.SignalKind{model.SignalNone, model.SignalNone},
		},
		{
			name:   "gradual decline does not fire",
			values: []float64{-10, -50, -90},
			want:   []model.SignalKind{model.SignalNone, model.SignalNone, model.SignalNone},
		},
		{
			name:   "boundary values are not crossings",
			values: []float64{-20, -85, -10, -80},
			want:   []model.SignalKind{model.SignalNone, model.SignalNone, model.SignalNone, model.SignalNone},
		},
		{
			name:   "undefined prior blocks",
			values: []float64{nan, -90},
			want:   []model.SignalKind{model.SignalNone, model.SignalNone},
		},
		{
			name:   "undefined current stays none",
			values: []float64{-10, nan},
			want:   []model.SignalKind{model.SignalNone, model.SignalNone},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, bars := series(tt.values...)
			signals, err := Generate(points, bars, DefaultRuleSet(), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kinds(signals))
		})
	}
}

func TestGenerate_Both(t *testing.T) {
	points, bars := series(-10, -90, -95, -50, -5, nan)
	rules := RuleSet{Mode: RuleBoth, Oversold: -80, Overbought: -20}

	signals, err := Generate(points, bars, rules, nil)
	require.NoError(t, err)
	assert.Equal(t, []model.SignalKind{
		model.SignalSell, model.SignalBuy, model.SignalHold, model.SignalHold, model.SignalSell, model.SignalNone,
	}, kinds(signals))
}

func TestGenerate_CrossoverExample(t *testing.T) {
	values := make([]float64, 15)
	for i := range values {
		switch {
		case i < 9:
			values[i] = nan
		case i == 9:
			values[i] = -15
		case i == 10:
			values[i] = -85
		default:
			values[i] = -60
		}
	}
	points, bars := series(values...)
	signals, err := Generate(points, bars, DefaultRuleSet(), nil)
	require.NoError(t, err)

	for i, s := range signals {
		if i == 10 {
			assert.Equal(t, model.SignalBuy, s.Kind)
			assert.Equal(t, bars[10].Time, s.Time)
		} else {
			assert.NotEqual(t, model.SignalBuy, s.Kind, "index %d", i)
		}
	}
}

func TestGenerate_AuxiliaryVeto(t *testing.T) {
	points, bars := series(-10, -90)
	// July bars with only January seasonally bullish
	for i := range bars {
		bars[i].Time = time.Date(2025, 7, 1+i, 0, 0, 0, 0, time.UTC)
	}
	jan, err := bias.NewMonthSet(1)
	require.NoError(t, err)

	veto := bias.NewEvaluator(bias.Settings{Seasonality: true, BullishMonths: jan}, bias.Inputs{})
	signals, err := Generate(points, bars, DefaultRuleSet(), veto)
	require.NoError(t, err)
	assert.Equal(t, model.SignalHold, signals[1].Kind)

	jul, _ := bias.NewMonthSet(7)
	allow := bias.NewEvaluator(bias.Settings{Seasonality: true, BullishMonths: jul}, bias.Inputs{})
	signals, err = Generate(points, bars, DefaultRuleSet(), allow)
	require.NoError(t, err)
	assert.Equal(t, model.SignalBuy, signals[1].Kind)

	unknown := bias.NewEvaluator(bias.Settings{Positioning: true}, bias.Inputs{PositioningErr: model.ErrAuxiliaryUnavailable})
	signals, err = Generate(points, bars, DefaultRuleSet(), unknown)
	require.NoError(t, err)
	assert.Equal(t, model.SignalBuy, signals[1].Kind)
}

func TestGenerate_Errors(t *testing.T) {
	points, bars := series(-10, -90)
	_, err := Generate(points, bars[:1], DefaultRuleSet(), nil)
	assert.True(t, errors.Is(err, model.ErrInvalidParameter))

	_, err = Generate(points, bars, RuleSet{Mode: "magic", Oversold: -80, Overbought: -20}, nil)
	assert.True(t, errors.Is(err, model.ErrInvalidParameter))
}

func TestRuleSet_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rules   RuleSet
		wantErr bool
	}{
		{"defaults", DefaultRuleSet(), false},
		{"threshold", RuleSet{Mode: RuleThreshold, Oversold: -70, Overbought: -30}, false},
		{"inverted", RuleSet{Mode: RuleThreshold, Oversold: -20, Overbought: -80}, true},
		{"equal", RuleSet{Mode: RuleBoth, Oversold: -50, Overbought: -50}, true},
		{"below scale", RuleSet{Mode: RuleCrossover, Oversold: -120, Overbought: -20}, true},
		{"above scale", RuleSet{Mode: RuleCrossover, Oversold: -80, Overbought: 10}, true},
		{"nan oversold", RuleSet{Mode: RuleThreshold, Oversold: math.NaN(), Overbought: -20}, true},
		{"nan overbought", RuleSet{Mode: RuleCrossover, Oversold: -80, Overbought: math.NaN()}, true},
		{"infinite oversold", RuleSet{Mode: RuleBoth, Oversold: math.Inf(-1), Overbought: -20}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rules.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrInvalidParameter)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	points, bars := series(nan, -10, -90, -50, -5, -85)
	rules := RuleSet{Mode: RuleBoth, Oversold: -80, Overbought: -20}
	a, err := Generate(points, bars, rules, nil)
	require.NoError(t, err)
	b, err := Generate(points, bars, rules, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

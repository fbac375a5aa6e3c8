package alert

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CrudeSentinel/internal/model"
)

func reportEndingWith(kind model.SignalKind, at time.Time) *model.BacktestReport {
	return &model.BacktestReport{
		Symbol: "CL=F",
		Signals: []model.Signal{
			{Time: at.Add(-24 * time.Hour), Kind: model.SignalHold},
			{Time: at, Kind: kind, Close: 70},
		},
	}
}

func TestTracker_FreshBuyOncePerBar(t *testing.T) {
	tr, err := NewTracker("")
	require.NoError(t, err)
	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

	sig, ok := tr.FreshBuy(reportEndingWith(model.SignalBuy, day))
	require.True(t, ok)
	assert.Equal(t, day, sig.Time)

	_, ok = tr.FreshBuy(reportEndingWith(model.SignalBuy, day))
	assert.False(t, ok, "same bar alerts once")

	_, ok = tr.FreshBuy(reportEndingWith(model.SignalBuy, day.Add(24*time.Hour)))
	assert.True(t, ok)
}

func TestTracker_IgnoresNonBuy(t *testing.T) {
	tr, err := NewTracker("")
	require.NoError(t, err)
	_, ok := tr.FreshBuy(reportEndingWith(model.SignalHold, time.Now()))
	assert.False(t, ok)
	_, ok = tr.FreshBuy(&model.BacktestReport{})
	assert.False(t, ok)
}

func TestTracker_PersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "alerts.json")
	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

	tr, err := NewTracker(path)
	require.NoError(t, err)
	_, ok := tr.FreshBuy(reportEndingWith(model.SignalBuy, day))
	require.True(t, ok)

	tr, err = NewTracker(path)
	require.NoError(t, err)
	_, ok = tr.FreshBuy(reportEndingWith(model.SignalBuy, day))
	assert.False(t, ok)

	state, err := LoadState(path)
	require.NoError(t, err)
	assert.True(t, state.LastBuy["CL=F"].Equal(day))
	assert.False(t, state.UpdatedAt.IsZero())
}

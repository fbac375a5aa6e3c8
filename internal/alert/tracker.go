package alert

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"CrudeSentinel/internal/model"
)

// Tracker decides whether the latest Buy of a run is new.
type Tracker struct {
	mu       sync.Mutex
	state    *State
	filePath string
}

// NewTracker loads the state from filePath. An empty path keeps state in memory only.
func NewTracker(filePath string) (*Tracker, error) {
	state := &State{LastBuy: map[string]time.Time{}}
	if filePath != "" {
		var err error
		if state, err = LoadState(filePath); err != nil {
			return nil, err
		}
	}
	return &Tracker{state: state, filePath: filePath}, nil
}

// FreshBuy returns the signal on the final bar of the report when it is a
// Buy newer than the last one alerted for the symbol, and records it.
func (t *Tracker) FreshBuy(r *model.BacktestReport) (model.Signal, bool) {
	if len(r.Signals) == 0 {
		return model.Signal{}, false
	}
	last := r.Signals[len(r.Signals)-1]
	if last.Kind != model.SignalBuy {
		return model.Signal{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.state.LastBuy[r.Symbol]; ok && !last.Time.After(prev) {
		return model.Signal{}, false
	}
	t.state.LastBuy[r.Symbol] = last.Time
	if err := t.save(); err != nil {
		log.WithError(err).Error("save alert state")
	}
	return last, true
}

func (t *Tracker) save() error {
	if t.filePath == "" {
		return nil
	}
	return SaveState(t.filePath, t.state)
}

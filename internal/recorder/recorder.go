package recorder

import (
	"errors"

	"CrudeSentinel/internal/model"
)

// Recorder persists finished backtest runs.
type Recorder interface {
	RecordRun(r *model.BacktestReport) error
	Close() error
}

// RunRecord is one persisted run as read back from storage.
type RunRecord struct {
	RunID       string
	Symbol      string
	Interval    string
	StartedAt   int64
	FinishedAt  int64
	Bars        int
	Trades      int
	Wins        int
	Losses      int
	WinRate     float64
	TotalReturn float64
	Warnings    string
}

// Multi fans a run out to several recorders. Every recorder is attempted;
// the errors are joined.
type Multi []Recorder

func (m Multi) RecordRun(r *model.BacktestReport) error {
	var errs []error
	for _, rec := range m {
		if err := rec.RecordRun(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, rec := range m {
		if err := rec.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"CrudeSentinel/internal/alert"
	"CrudeSentinel/internal/backtest"
	"CrudeSentinel/internal/collector"
	"CrudeSentinel/internal/model"
	"CrudeSentinel/internal/notifier"
	"CrudeSentinel/internal/pipeline"
	"CrudeSentinel/internal/recorder"
)

// ErrNoReport is returned before the first successful run.
var ErrNoReport = errors.New("no backtest report yet")

// Notifier delivers formatted messages to the operator.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Scheduler runs backtests on a cron schedule and on demand, and keeps the
// latest report for the chat commands and the HTTP API.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Settings  pipeline.Settings
	Notifier  Notifier
	Recorder  recorder.Recorder
	Alerts    *alert.Tracker
	Ctx       context.Context

	runMu sync.Mutex

	mu          sync.RWMutex
	latest      *model.BacktestReport
	latestInput *pipeline.Input
}

// NewScheduler creates a new Scheduler. Notifier and alerts may be nil.
func NewScheduler(ctx context.Context, col *collector.Collector, settings pipeline.Settings, n Notifier, rec recorder.Recorder, alerts *alert.Tracker) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.PrintfLogger(log.StandardLogger()))),
		),
		Collector: col,
		Settings:  settings,
		Notifier:  n,
		Recorder:  rec,
		Alerts:    alerts,
		Ctx:       ctx,
	}
}

// Register adds the periodic backtest run.
func (s *Scheduler) Register(runCron string) error {
	if _, err := s.Cron.AddFunc(runCron, s.scheduledRun); err != nil {
		return fmt.Errorf("register backtest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info("scheduler stopped")
}

func (s *Scheduler) scheduledRun() {
	if _, err := s.RunNow(s.Ctx); err != nil {
		log.WithError(err).Error("scheduled backtest failed")
	}
}

// RunNow collects data, runs the pipeline, then records and announces the
// report. Concurrent calls are serialised.
func (s *Scheduler) RunNow(ctx context.Context) (*model.BacktestReport, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	runID := uuid.NewString()
	started := time.Now().UTC()
	logger := log.WithFields(log.Fields{"run_id": runID, "symbol": s.Collector.Symbol})
	logger.Info("running backtest")

	in, err := s.Collector.Collect(ctx)
	if err != nil {
		s.trySend(ctx, notifier.FormatError(s.Collector.Symbol, started, err))
		return nil, fmt.Errorf("collect: %w", err)
	}

	rep, err := pipeline.Run(*in, s.Settings)
	if err != nil {
		s.trySend(ctx, notifier.FormatError(s.Collector.Symbol, started, err))
		return nil, err
	}
	rep.RunID = runID
	rep.StartedAt = started
	rep.FinishedAt = time.Now().UTC()

	s.mu.Lock()
	s.latest = rep
	s.latestInput = in
	s.mu.Unlock()

	if err := s.Recorder.RecordRun(rep); err != nil {
		logger.WithError(err).Error("record run")
	}
	for _, w := range rep.Warnings {
		logger.Warn(w)
	}
	logger.WithFields(log.Fields{
		"bars":   rep.Series.Len(),
		"buys":   len(rep.BuySignals()),
		"trades": rep.Summary.TotalTrades,
	}).Info("backtest finished")

	s.trySend(ctx, notifier.FormatRunReport(rep))
	if s.Alerts != nil {
		if sig, ok := s.Alerts.FreshBuy(rep); ok {
			s.trySend(ctx, notifier.FormatBuyAlert(rep.Symbol, sig))
		}
	}
	return rep, nil
}

// Latest returns the most recent report, or nil before the first run.
func (s *Scheduler) Latest() *model.BacktestReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Simulation returns the configured exit policy.
func (s *Scheduler) Simulation() backtest.Params { return s.Settings.Simulation }

// Rerun re-simulates the latest collected series with a different stop and
// target. Nothing is stored; the latest report is unchanged.
func (s *Scheduler) Rerun(stopLossPct, targetPct float64) (*model.BacktestReport, error) {
	s.mu.RLock()
	in, base := s.latestInput, s.latest
	s.mu.RUnlock()
	if in == nil {
		return nil, ErrNoReport
	}

	settings := s.Settings
	settings.Simulation = backtest.Params{
		StopLossPct: stopLossPct,
		TargetPct:   targetPct,
		HorizonBars: settings.Simulation.HorizonBars,
		Overbought:  settings.Simulation.Overbought,
	}
	rep, err := pipeline.Run(*in, settings)
	if err != nil {
		return nil, err
	}
	rep.RunID = base.RunID
	rep.StartedAt = base.StartedAt
	rep.FinishedAt = base.FinishedAt
	return rep, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	var cmd string
	if fields := strings.Fields(command); len(fields) > 0 {
		cmd = strings.ToLower(fields[0])
	}
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i] // "/trades@SentinelBot" in group chats
	}
	switch cmd {
	case "/backtest":
		if _, err := s.RunNow(ctx); err != nil {
			log.WithError(err).Error("manual backtest failed")
		}
		return ""
	case "/signals", "/trades", "/report":
		rep := s.Latest()
		if rep == nil {
			return "No backtest has run yet. Send /backtest."
		}
		switch cmd {
		case "/signals":
			return notifier.FormatSignals(rep, 10)
		case "/trades":
			return notifier.FormatTrades(rep, 10)
		default:
			return notifier.FormatRunReport(rep)
		}
	default:
		return "Commands:\n• /backtest run a backtest now\n• /report latest summary\n• /signals recent buy signals\n• /trades recent trades"
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, text); err != nil {
		log.WithError(err).Error("send notification")
	}
}

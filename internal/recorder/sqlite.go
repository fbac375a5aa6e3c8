package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"CrudeSentinel/internal/model"
)

// SQLiteRecorder persists runs, their signals and their trades to SQLite.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while runs are written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			run_id        TEXT PRIMARY KEY,
			symbol        TEXT NOT NULL,
			bar_interval  TEXT NOT NULL,
			started_at    INTEGER NOT NULL,
			finished_at   INTEGER NOT NULL,
			bars          INTEGER,
			total_trades  INTEGER,
			resolved      INTEGER,
			unresolved    INTEGER,
			wins          INTEGER,
			losses        INTEGER,
			win_rate      REAL,
			total_pnl     REAL,
			total_return  REAL,
			avg_return    REAL,
			warnings      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON backtest_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS signals (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL REFERENCES backtest_runs(run_id),
			bar_time   INTEGER NOT NULL,
			kind       TEXT NOT NULL,
			close      REAL,
			williams_r REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_run ON signals(run_id)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL REFERENCES backtest_runs(run_id),
			entry_time  INTEGER NOT NULL,
			entry_price REAL,
			stop_loss   REAL,
			target      REAL,
			reason      TEXT NOT NULL,
			bars_held   INTEGER,
			exit_time   INTEGER,
			exit_price  REAL,
			pnl         REAL,
			return_pct  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun writes the run header, its non-None signals and its trades in
// one transaction.
func (r *SQLiteRecorder) RecordRun(rep *model.BacktestReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	s := rep.Summary
	_, err = tx.Exec(`INSERT INTO backtest_runs
		(run_id, symbol, bar_interval, started_at, finished_at, bars,
		 total_trades, resolved, unresolved, wins, losses,
		 win_rate, total_pnl, total_return, avg_return, warnings)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rep.RunID, rep.Symbol, string(rep.Interval), rep.StartedAt.Unix(), rep.FinishedAt.Unix(), rep.Series.Len(),
		s.TotalTrades, s.Resolved, s.Unresolved, s.Wins, s.Losses,
		s.WinRate, s.TotalPnL, s.TotalReturnPct, s.AvgReturnPct, strings.Join(rep.Warnings, "; "),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, sig := range rep.Signals {
		if sig.Kind == model.SignalNone {
			continue
		}
		var value sql.NullFloat64
		if sig.Value != nil {
			value = sql.NullFloat64{Float64: *sig.Value, Valid: true}
		}
		if _, err := tx.Exec(`INSERT INTO signals (run_id, bar_time, kind, close, williams_r) VALUES (?,?,?,?,?)`,
			rep.RunID, sig.Time.Unix(), string(sig.Kind), sig.Close, value); err != nil {
			return fmt.Errorf("insert signal: %w", err)
		}
	}

	for _, t := range rep.Trades {
		var exitTime sql.NullInt64
		var exitPrice, pnl, ret sql.NullFloat64
		if t.Exit != nil {
			exitTime = sql.NullInt64{Int64: t.Exit.Time.Unix(), Valid: true}
			exitPrice = sql.NullFloat64{Float64: t.Exit.Price, Valid: true}
			pnl = sql.NullFloat64{Float64: t.Exit.PnL, Valid: true}
			ret = sql.NullFloat64{Float64: t.Exit.ReturnPct, Valid: true}
		}
		if _, err := tx.Exec(`INSERT INTO trades
			(run_id, entry_time, entry_price, stop_loss, target, reason, bars_held, exit_time, exit_price, pnl, return_pct)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			rep.RunID, t.EntryTime.Unix(), t.EntryPrice, t.StopLoss, t.Target, string(t.Reason), t.BarsHeld,
			exitTime, exitPrice, pnl, ret); err != nil {
			return fmt.Errorf("insert trade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunRecord, error) {
	rows, err := r.db.Query(`SELECT run_id, symbol, bar_interval, started_at, finished_at, bars,
		total_trades, wins, losses, win_rate, total_return, warnings
		FROM backtest_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.RunID, &rec.Symbol, &rec.Interval, &rec.StartedAt, &rec.FinishedAt, &rec.Bars,
			&rec.Trades, &rec.Wins, &rec.Losses, &rec.WinRate, &rec.TotalReturn, &rec.Warnings); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info("closing sqlite recorder")
	return r.db.Close()
}

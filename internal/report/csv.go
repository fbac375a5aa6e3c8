package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"

	"CrudeSentinel/internal/model"
)

var (
	tradeHeader  = []string{"entry_date", "entry_price", "stop_loss", "target", "exit_date", "exit_price", "reason", "bars_held", "pnl", "return_pct"}
	signalHeader = []string{"date", "signal", "close", "williams_r"}
)

// WriteTradesCSV writes the backtest table.
func WriteTradesCSV(w io.Writer, trades []model.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tradeHeader); err != nil {
		return err
	}
	for _, r := range TradeRows(trades) {
		rec := []string{r.EntryDate, r.EntryPrice, r.StopLoss, r.Target, r.ExitDate, r.ExitPrice,
			r.Reason, strconv.Itoa(r.BarsHeld), r.PnL, r.ReturnPct}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSignalsCSV writes the signal table. Callers pass the Buy signals for
// the classic entry table or the full series for a per-bar dump.
func WriteSignalsCSV(w io.Writer, signals []model.Signal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(signalHeader); err != nil {
		return err
	}
	for _, r := range SignalRows(signals) {
		if err := cw.Write([]string{r.Date, r.Kind, r.Close, r.WilliamsR}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVSink writes signals.csv and backtest.csv for every run into Dir,
// replacing the previous files.
type CSVSink struct {
	Dir string
}

func NewCSVSink(dir string) *CSVSink { return &CSVSink{Dir: dir} }

func (s *CSVSink) RecordRun(r *model.BacktestReport) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.Dir, "signals.csv"), func(w io.Writer) error {
		return WriteSignalsCSV(w, r.BuySignals())
	}); err != nil {
		return fmt.Errorf("export signals: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.Dir, "backtest.csv"), func(w io.Writer) error {
		return WriteTradesCSV(w, r.Trades)
	}); err != nil {
		return fmt.Errorf("export trades: %w", err)
	}
	log.WithFields(log.Fields{"run_id": r.RunID, "dir": s.Dir}).Debug("csv export written")
	return nil
}

func (s *CSVSink) Close() error { return nil }

func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

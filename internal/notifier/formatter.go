package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"CrudeSentinel/internal/model"
	"CrudeSentinel/internal/report"
)

var (
	printer = message.NewPrinter(language.English)
	titler  = cases.Title(language.English)
)

// reasonLabel turns STOP_LOSS into "Stop Loss".
func reasonLabel(r model.ExitReason) string {
	return titler.String(strings.ReplaceAll(strings.ToLower(string(r)), "_", " "))
}

// FormatRunReport formats a finished backtest run into a Telegram message.
func FormatRunReport(r *model.BacktestReport) string {
	var b strings.Builder
	s := report.NewSummaryView(r.Summary)

	b.WriteString(fmt.Sprintf("🛢 <b>Williams %%R backtest</b> | %s %s | %s\n\n",
		html.EscapeString(r.Symbol), r.Interval, r.FinishedAt.Format("2006-01-02 15:04")))

	if n := r.Series.Len(); n > 0 {
		last := r.Series.Bars[n-1]
		b.WriteString(printer.Sprintf("Bars: %d | Last close: %.2f\n", n, last.Close))
	}
	if len(r.Oscillator) > 0 {
		p := r.Oscillator[len(r.Oscillator)-1]
		if p.Defined() {
			b.WriteString(fmt.Sprintf("Latest %%R: %s\n", report.Round2(p.Value).StringFixed(2)))
		} else {
			b.WriteString("Latest %R: undefined\n")
		}
	}
	b.WriteString(printer.Sprintf("Buy signals: %d\n\n", len(r.BuySignals())))

	b.WriteString("📈 <b>Trades:</b>\n")
	b.WriteString(printer.Sprintf("  total %d | resolved %d | unresolved %d\n", s.TotalTrades, s.Resolved, s.Unresolved))
	b.WriteString(printer.Sprintf("  wins %d | losses %d | win rate %s%%\n", s.Wins, s.Losses, s.WinRate))
	b.WriteString(fmt.Sprintf("  total P&amp;L %s | total return %s%% | avg %s%%\n", s.TotalPnL, s.TotalReturnPct, s.AvgReturnPct))

	if len(r.Summary.ByReason) > 0 {
		reasons := make([]string, 0, len(r.Summary.ByReason))
		for reason, n := range r.Summary.ByReason {
			reasons = append(reasons, fmt.Sprintf("%s %d", reasonLabel(reason), n))
		}
		sort.Strings(reasons)
		b.WriteString("  exits: " + strings.Join(reasons, ", ") + "\n")
	}

	for _, w := range r.Warnings {
		b.WriteString(fmt.Sprintf("\n⚠️ %s", html.EscapeString(w)))
	}
	return b.String()
}

// FormatSignals lists the most recent Buy signals, newest last.
func FormatSignals(r *model.BacktestReport, limit int) string {
	buys := r.BuySignals()
	if len(buys) == 0 {
		return "No buy signals in the current window."
	}
	if limit > 0 && len(buys) > limit {
		buys = buys[len(buys)-limit:]
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📍 <b>Buy signals</b> | %s\n<pre>", html.EscapeString(r.Symbol)))
	for _, row := range report.SignalRows(buys) {
		b.WriteString(fmt.Sprintf("%s  close %s  %%R %s\n", row.Date, row.Close, row.WilliamsR))
	}
	b.WriteString("</pre>")
	return b.String()
}

// FormatTrades renders the most recent trades as a preformatted table.
func FormatTrades(r *model.BacktestReport, limit int) string {
	trades := r.Trades
	if len(trades) == 0 {
		return "No trades in the current window."
	}
	if limit > 0 && len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}
	return fmt.Sprintf("💼 <b>Trades</b> | %s\n<pre>%s</pre>",
		html.EscapeString(r.Symbol), html.EscapeString(report.FormatTradesTable(trades)))
}

// FormatError formats a failed run.
func FormatError(symbol string, at time.Time, err error) string {
	return fmt.Sprintf("❌ <b>Backtest failed</b> | %s | %s\n%s",
		html.EscapeString(symbol), at.Format("2006-01-02 15:04"), html.EscapeString(err.Error()))
}

// FormatBuyAlert announces a Buy on the most recent bar.
func FormatBuyAlert(symbol string, sig model.Signal) string {
	reading := "n/a"
	if sig.Value != nil {
		reading = report.Round2(*sig.Value).StringFixed(2)
	}
	return fmt.Sprintf("🟢 <b>New buy signal</b> | %s\n%s close %s, %%R %s",
		html.EscapeString(symbol), sig.Time.Format("2006-01-02"), report.Round2(sig.Close).StringFixed(2), reading)
}

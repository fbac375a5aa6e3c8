package report

import (
	"time"

	"github.com/shopspring/decimal"

	"CrudeSentinel/internal/model"
)

const dateLayout = "2006-01-02"

// Round2 rounds a value to the 2-decimal display precision. Computation
// upstream keeps full precision; only rendered output goes through here.
func Round2(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// TradeRow is the display form of one trade. Exit columns are empty for
// unresolved trades.
type TradeRow struct {
	EntryDate  string `json:"entry_date"`
	EntryPrice string `json:"entry_price"`
	StopLoss   string `json:"stop_loss"`
	Target     string `json:"target"`
	ExitDate   string `json:"exit_date"`
	ExitPrice  string `json:"exit_price"`
	Reason     string `json:"reason"`
	BarsHeld   int    `json:"bars_held"`
	PnL        string `json:"pnl"`
	ReturnPct  string `json:"return_pct"`
}

// SignalRow is the display form of one signal.
type SignalRow struct {
	Date      string `json:"date"`
	Kind      string `json:"kind"`
	Close     string `json:"close"`
	WilliamsR string `json:"williams_r"`
}

func formatDate(t time.Time) string { return t.UTC().Format(dateLayout) }

func fixed2(v float64) string { return Round2(v).StringFixed(2) }

func TradeRows(trades []model.Trade) []TradeRow {
	rows := make([]TradeRow, 0, len(trades))
	for _, t := range trades {
		row := TradeRow{
			EntryDate:  formatDate(t.EntryTime),
			EntryPrice: fixed2(t.EntryPrice),
			StopLoss:   fixed2(t.StopLoss),
			Target:     fixed2(t.Target),
			Reason:     string(t.Reason),
			BarsHeld:   t.BarsHeld,
		}
		if t.Exit != nil {
			row.ExitDate = formatDate(t.Exit.Time)
			row.ExitPrice = fixed2(t.Exit.Price)
			row.PnL = fixed2(t.Exit.PnL)
			row.ReturnPct = fixed2(t.Exit.ReturnPct)
		}
		rows = append(rows, row)
	}
	return rows
}

func SignalRows(signals []model.Signal) []SignalRow {
	rows := make([]SignalRow, 0, len(signals))
	for _, s := range signals {
		row := SignalRow{
			Date:  formatDate(s.Time),
			Kind:  s.Kind.String(),
			Close: fixed2(s.Close),
		}
		if s.Value != nil {
			row.WilliamsR = fixed2(*s.Value)
		}
		rows = append(rows, row)
	}
	return rows
}

// SummaryView is the Summary with display rounding applied.
type SummaryView struct {
	TotalTrades    int            `json:"total_trades"`
	Resolved       int            `json:"resolved"`
	Unresolved     int            `json:"unresolved"`
	Wins           int            `json:"wins"`
	Losses         int            `json:"losses"`
	Flat           int            `json:"flat"`
	WinRate        string         `json:"win_rate"`
	TotalPnL       string         `json:"total_pnl"`
	TotalReturnPct string         `json:"total_return_pct"`
	AvgReturnPct   string         `json:"avg_return_pct"`
	ByReason       map[string]int `json:"by_reason"`
}

func NewSummaryView(s model.Summary) SummaryView {
	byReason := make(map[string]int, len(s.ByReason))
	for reason, n := range s.ByReason {
		byReason[string(reason)] = n
	}
	return SummaryView{
		TotalTrades:    s.TotalTrades,
		Resolved:       s.Resolved,
		Unresolved:     s.Unresolved,
		Wins:           s.Wins,
		Losses:         s.Losses,
		Flat:           s.Flat,
		WinRate:        fixed2(s.WinRate),
		TotalPnL:       fixed2(s.TotalPnL),
		TotalReturnPct: fixed2(s.TotalReturnPct),
		AvgReturnPct:   fixed2(s.AvgReturnPct),
		ByReason:       byReason,
	}
}

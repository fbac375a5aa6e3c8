package backtest

import (
	"github.com/shopspring/decimal"

	"CrudeSentinel/internal/model"
)

// Summarize aggregates a trade ledger. Sums run in decimal so the rounded
// totals do not drift with the number of trades.
func Summarize(trades []model.Trade) model.Summary {
	s := model.Summary{TotalTrades: len(trades), ByReason: model.ExitCounts{}}
	totalPnL := decimal.Zero
	totalRet := decimal.Zero

	for _, t := range trades {
		s.ByReason[t.Reason]++
		if !t.Resolved() {
			s.Unresolved++
			continue
		}
		s.Resolved++
		switch {
		case t.Exit.PnL > 0:
			s.Wins++
		case t.Exit.PnL < 0:
			s.Losses++
		default:
			s.Flat++
		}
		totalPnL = totalPnL.Add(decimal.NewFromFloat(t.Exit.PnL))
		totalRet = totalRet.Add(decimal.NewFromFloat(t.Exit.ReturnPct))
	}

	s.TotalPnL = totalPnL.InexactFloat64()
	s.TotalReturnPct = totalRet.InexactFloat64()
	if s.Resolved > 0 {
		n := decimal.NewFromInt(int64(s.Resolved))
		s.AvgReturnPct = totalRet.Div(n).InexactFloat64()
		s.WinRate = decimal.NewFromInt(int64(s.Wins)).Div(n).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	return s
}

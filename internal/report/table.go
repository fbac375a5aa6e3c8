package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"CrudeSentinel/internal/model"
)

// FormatTradesTable renders the trade ledger as an aligned plain-text table.
func FormatTradesTable(trades []model.Trade) string {
	var sb strings.Builder
	_ = WriteTradesTable(&sb, trades)
	return sb.String()
}

func WriteTradesTable(w io.Writer, trades []model.Trade) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTRY\tPRICE\tSTOP\tTARGET\tEXIT\tEXIT PRICE\tREASON\tP&L\tRETURN %")
	for _, r := range TradeRows(trades) {
		exitDate, exitPrice, pnl, ret := dash(r.ExitDate), dash(r.ExitPrice), dash(r.PnL), dash(r.ReturnPct)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.EntryDate, r.EntryPrice, r.StopLoss, r.Target, exitDate, exitPrice, r.Reason, pnl, ret)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

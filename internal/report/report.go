// Package report renders backtest results and signals for the console.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/pilegduaempat-art/-binance-trading-bot/internal/backtest"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/signal"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/storage"
)

const timeLayout = "2006-01-02 15:04"

// Summary prints the aggregate statistics of one run.
func Summary(out io.Writer, res *backtest.Result) {
	table := tablewriter.NewWriter(out)
	table.Header("Metric", "Value")
	table.Append("Total trades", fmt.Sprintf("%d", res.TotalTrades))
	table.Append("Win rate", fmt.Sprintf("%.2f%%", res.WinRate))
	table.Append("Profit factor", ratioLabel(res.ProfitFactor))
	table.Append("Total return", fmt.Sprintf("%.2f%%", res.TotalReturn))
	table.Append("Sharpe ratio", fmt.Sprintf("%.3f", res.SharpeRatio))
	table.Append("Max drawdown", fmt.Sprintf("%.2f%%", res.MaxDrawdown))
	table.Append("Avg win", fmt.Sprintf("%.2f", res.AvgWin))
	table.Append("Avg loss", fmt.Sprintf("%.2f", res.AvgLoss))
	table.Append("Expectancy", fmt.Sprintf("%.2f", res.Expectancy))
	table.Append("Avg duration", fmt.Sprintf("%.1f bars", res.AvgDuration))
	table.Append("Final balance", fmt.Sprintf("%.2f", res.FinalBalance))
	table.Render()
}

// Trades prints the closed trade list in order.
func Trades(out io.Writer, trades []backtest.Trade) {
	if len(trades) == 0 {
		fmt.Fprintln(out, "no trades")
		return
	}
	table := tablewriter.NewWriter(out)
	table.Header("#", "Dir", "Entry", "Entry$", "Exit", "Exit$", "Size", "PnL", "PnL%", "Bars", "Reason")
	for i, t := range trades {
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(t.Direction),
			t.EntryTime.Format(timeLayout),
			fmt.Sprintf("%.4f", t.EntryPrice),
			t.ExitTime.Format(timeLayout),
			fmt.Sprintf("%.4f", t.ExitPrice),
			fmt.Sprintf("%.4f", t.Size),
			fmt.Sprintf("%.2f", t.PnL),
			fmt.Sprintf("%.2f", t.PnLPct),
			fmt.Sprintf("%d", t.Duration),
			string(t.ExitReason),
		)
	}
	table.Render()
}

// Runs prints stored run summaries, newest first.
func Runs(out io.Writer, runs []storage.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "no stored runs")
		return
	}
	table := tablewriter.NewWriter(out)
	table.Header("ID", "Created", "Symbol", "Bars", "Trades", "Win%", "PF", "Return%", "Balance")
	for _, r := range runs {
		table.Append(
			shortID(r.ID),
			r.CreatedAt.Format(timeLayout),
			r.Symbol,
			fmt.Sprintf("%d", r.Bars),
			fmt.Sprintf("%d", r.TotalTrades),
			fmt.Sprintf("%.1f", r.WinRate),
			ratioLabel(r.ProfitFactor),
			fmt.Sprintf("%.2f", r.TotalReturn),
			fmt.Sprintf("%.2f", r.FinalBalance),
		)
	}
	table.Render()
}

// SignalCard prints one signal with its levels and factor contributions.
func SignalCard(out io.Writer, sig *signal.Signal) {
	if sig == nil {
		fmt.Fprintln(out, "no signal")
		return
	}
	fmt.Fprintf(out, "%s  score=%d  confidence=%.1f%%  (%s)\n",
		sig.Direction, sig.Score, sig.Confidence, sig.Time.Format(timeLayout))
	fmt.Fprintf(out, "entry=%.4f  sl=%.4f  tp1=%.4f  tp2=%.4f  tp3=%.4f  rr=%.2f\n",
		sig.Entry, sig.StopLoss, sig.TP1, sig.TP2, sig.TP3, sig.RiskReward)

	names := make([]string, 0, len(sig.Contributions))
	for name := range sig.Contributions {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(out)
	table.Header("Factor", "Contribution")
	for _, name := range names {
		table.Append(name, fmt.Sprintf("%+d", sig.Contributions[name]))
	}
	table.Render()
}

func ratioLabel(v float64) string {
	if math.IsInf(v, 1) {
		return "INF"
	}
	return fmt.Sprintf("%.2f", v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

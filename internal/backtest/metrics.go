package backtest

import "math"

// Result aggregates one backtest run. Percent fields (WinRate, TotalReturn,
// MaxDrawdown) are expressed 0..100; ProfitFactor is +Inf when no trade lost.
type Result struct {
	TotalTrades  int           `json:"total_trades"`
	WinRate      float64       `json:"win_rate"`
	ProfitFactor float64       `json:"profit_factor"`
	TotalReturn  float64       `json:"total_return"`
	SharpeRatio  float64       `json:"sharpe_ratio"`
	MaxDrawdown  float64       `json:"max_drawdown"`
	AvgWin       float64       `json:"avg_win"`
	AvgLoss      float64       `json:"avg_loss"`
	FinalBalance float64       `json:"final_balance"`
	AvgDuration  float64       `json:"avg_duration"`
	Expectancy   float64       `json:"expectancy"`
	EquityCurve  []EquityPoint `json:"equity_curve"`
	Trades       []Trade       `json:"trades"`
}

// Summarize folds closed trades and the equity curve into a Result. A nil or
// empty trade list yields zero/neutral statistics without error.
func Summarize(trades []Trade, curve []EquityPoint, initialBalance float64) *Result {
	res := &Result{
		TotalTrades:  len(trades),
		FinalBalance: initialBalance,
		EquityCurve:  curve,
		Trades:       trades,
	}
	if len(curve) > 0 {
		res.FinalBalance = curve[len(curve)-1].Balance
	}
	if initialBalance > 0 {
		res.TotalReturn = (res.FinalBalance - initialBalance) / initialBalance * 100
	}
	res.MaxDrawdown = maxDrawdown(curve)
	if len(trades) == 0 {
		return res
	}

	var wins, losses int
	var grossProfit, grossLoss float64
	var sumWin, sumLoss, sumDuration float64
	returns := make([]float64, 0, len(trades))
	for _, t := range trades {
		sumDuration += float64(t.Duration)
		returns = append(returns, t.PnLPct)
		switch {
		case t.PnL > 0:
			wins++
			grossProfit += t.PnL
			sumWin += t.PnL
		case t.PnL < 0:
			losses++
			grossLoss += -t.PnL
			sumLoss += t.PnL
		}
	}

	n := float64(len(trades))
	res.WinRate = float64(wins) / n * 100
	res.AvgDuration = sumDuration / n
	if wins > 0 {
		res.AvgWin = sumWin / float64(wins)
	}
	if losses > 0 {
		res.AvgLoss = sumLoss / float64(losses)
	}
	switch {
	case grossLoss > 0:
		res.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		res.ProfitFactor = math.Inf(1)
	}
	pWin := res.WinRate / 100
	res.Expectancy = pWin*res.AvgWin - (1-pWin)*math.Abs(res.AvgLoss)
	res.SharpeRatio = sharpe(returns)
	return res
}

// sharpe is the mean over standard deviation of per-trade percent returns.
// It is intentionally not annualized; bars carry no fixed wall-clock span.
func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))
	var varSum float64
	for _, r := range returns {
		d := r - mean
		varSum += d * d
	}
	std := math.Sqrt(varSum / float64(len(returns)))
	if std == 0 {
		return 0
	}
	return mean / std
}

// maxDrawdown returns the worst peak-to-trough decline in percent, 0..100.
func maxDrawdown(curve []EquityPoint) float64 {
	var peak, worst float64
	for _, p := range curve {
		if p.Balance > peak {
			peak = p.Balance
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - p.Balance) / peak * 100; dd > worst {
			worst = dd
		}
	}
	return worst
}

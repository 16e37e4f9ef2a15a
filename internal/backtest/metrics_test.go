package backtest

import (
	"math"
	"testing"
	"time"
)

func curveOf(balances ...float64) []EquityPoint {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]EquityPoint, len(balances))
	for i, b := range balances {
		out[i] = EquityPoint{Time: base.Add(time.Duration(i) * time.Minute), Balance: b}
	}
	return out
}

func TestSummarizeEmptyTradesIsNeutral(t *testing.T) {
	res := Summarize(nil, curveOf(10000, 10000, 10000), 10000)
	if res.TotalTrades != 0 || res.WinRate != 0 || res.ProfitFactor != 0 {
		t.Fatalf("empty run should stay neutral, got %+v", res)
	}
	if res.TotalReturn != 0 || res.MaxDrawdown != 0 || res.Expectancy != 0 {
		t.Fatalf("empty run should have zero return and drawdown, got %+v", res)
	}
	if res.FinalBalance != 10000 {
		t.Fatalf("final balance should track the curve, got %.2f", res.FinalBalance)
	}
}

func TestSummarizeProfitFactorSentinel(t *testing.T) {
	trades := []Trade{
		{PnL: 50, PnLPct: 1, Duration: 3},
		{PnL: 25, PnLPct: 0.5, Duration: 5},
	}
	res := Summarize(trades, curveOf(10000, 10075), 10000)
	if !math.IsInf(res.ProfitFactor, 1) {
		t.Fatalf("no losing trades should yield +Inf profit factor, got %.4f", res.ProfitFactor)
	}
	if res.WinRate != 100 {
		t.Fatalf("expected 100%% win rate, got %.2f", res.WinRate)
	}
	if math.Abs(res.AvgDuration-4) > 1e-9 {
		t.Fatalf("expected avg duration 4, got %.4f", res.AvgDuration)
	}
}

func TestSummarizeMixedTrades(t *testing.T) {
	trades := []Trade{
		{PnL: 100, PnLPct: 2, Duration: 4},
		{PnL: -50, PnLPct: -1, Duration: 2},
		{PnL: 100, PnLPct: 2, Duration: 6},
		{PnL: -50, PnLPct: -1, Duration: 4},
	}
	res := Summarize(trades, curveOf(10000, 10100, 10050, 10150, 10100), 10000)
	if res.WinRate != 50 {
		t.Fatalf("expected 50%% win rate, got %.2f", res.WinRate)
	}
	if math.Abs(res.ProfitFactor-2) > 1e-9 {
		t.Fatalf("expected profit factor 2, got %.4f", res.ProfitFactor)
	}
	if math.Abs(res.AvgWin-100) > 1e-9 || math.Abs(res.AvgLoss+50) > 1e-9 {
		t.Fatalf("expected avg win 100 and avg loss -50, got %.2f / %.2f", res.AvgWin, res.AvgLoss)
	}
	// 0.5*100 + 0.5*(-50)
	if math.Abs(res.Expectancy-25) > 1e-9 {
		t.Fatalf("expected expectancy 25, got %.4f", res.Expectancy)
	}
	if math.Abs(res.TotalReturn-1) > 1e-9 {
		t.Fatalf("expected total return 1%%, got %.4f", res.TotalReturn)
	}
}

func TestMaxDrawdownBounds(t *testing.T) {
	dd := maxDrawdown(curveOf(10000, 12000, 9000, 11000))
	if math.Abs(dd-25) > 1e-9 {
		t.Fatalf("expected 25%% drawdown from the 12000 peak, got %.4f", dd)
	}
	if dd < 0 || dd > 100 {
		t.Fatalf("drawdown out of range: %.4f", dd)
	}
	if got := maxDrawdown(nil); got != 0 {
		t.Fatalf("empty curve should have zero drawdown, got %.4f", got)
	}
	if got := maxDrawdown(curveOf(10000, 10500, 11000)); got != 0 {
		t.Fatalf("monotonic curve should have zero drawdown, got %.4f", got)
	}
}

func TestSharpeDegenerateCases(t *testing.T) {
	if got := sharpe([]float64{1.5}); got != 0 {
		t.Fatalf("single return should yield 0, got %.4f", got)
	}
	if got := sharpe([]float64{2, 2, 2}); got != 0 {
		t.Fatalf("zero variance should yield 0, got %.4f", got)
	}
	if got := sharpe([]float64{1, -1, 1, -1}); got != 0 {
		t.Fatalf("zero mean should yield 0 sharpe, got %.4f", got)
	}
	if got := sharpe([]float64{2, 1, 3, 2}); got <= 0 {
		t.Fatalf("positive drift should yield a positive sharpe, got %.4f", got)
	}
}

package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pilegduaempat-art/-binance-trading-bot/internal/config"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/market"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/signal"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func signalScorer(cfg *config.Config) (*signal.Scorer, error) {
	return signal.NewScorer(cfg.Signal, cfg.Thresholds)
}

func flatBar(i int) market.Bar {
	return market.Bar{
		Time: t0.Add(time.Duration(i) * time.Minute),
		Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000,
	}
}

// consensusLongBar carries enough aligned bullish indicators to clear the
// long score threshold. Close 100, ATR 2: sl 95, tp 103/106/110.
func consensusLongBar(i int) market.Bar {
	bar := market.Bar{
		Time: t0.Add(time.Duration(i) * time.Minute),
		Open: 99, High: 101, Low: 98.5, Close: 100, Volume: 5000,
	}
	bar.SetIndicator(market.ATR, 2)
	bar.SetIndicator(market.EMA9, 100)
	bar.SetIndicator(market.EMA21, 99)
	bar.SetIndicator(market.EMA50, 98)
	bar.SetIndicator(market.SMA200, 95)
	bar.SetIndicator(market.ADX, 45)
	bar.SetIndicator(market.RSI, 25)
	bar.SetIndicator(market.MACDDiff, 0.8)
	bar.SetIndicator(market.StochK, 15)
	bar.SetIndicator(market.StochD, 18)
	bar.SetIndicator(market.CMF, 0.3)
	bar.SetIndicator(market.MFI, 15)
	bar.SetIndicator(market.VolumeRatio, 2.5)
	return bar
}

func consensusShortBar(i int) market.Bar {
	bar := market.Bar{
		Time: t0.Add(time.Duration(i) * time.Minute),
		Open: 101, High: 101.5, Low: 99, Close: 100, Volume: 5000,
	}
	bar.SetIndicator(market.ATR, 2)
	bar.SetIndicator(market.EMA9, 98)
	bar.SetIndicator(market.EMA21, 99)
	bar.SetIndicator(market.EMA50, 100)
	bar.SetIndicator(market.SMA200, 105)
	bar.SetIndicator(market.ADX, 45)
	bar.SetIndicator(market.RSI, 85)
	bar.SetIndicator(market.MACDDiff, -0.8)
	bar.SetIndicator(market.StochK, 85)
	bar.SetIndicator(market.StochD, 82)
	bar.SetIndicator(market.CMF, -0.3)
	bar.SetIndicator(market.MFI, 85)
	bar.SetIndicator(market.VolumeRatio, 2.5)
	return bar
}

func pathBar(i int, o, h, l, c float64) market.Bar {
	return market.Bar{
		Time: t0.Add(time.Duration(i) * time.Minute),
		Open: o, High: h, Low: l, Close: c, Volume: 1000,
	}
}

// warmup fills indices 0..n-1 with flat no-signal bars.
func warmup(n int) []market.Bar {
	bars := make([]market.Bar, 0, n+8)
	for i := 0; i < n; i++ {
		bars = append(bars, flatBar(i))
	}
	return bars
}

func newSimulator(t *testing.T, cfg config.Backtest) *Simulator {
	t.Helper()
	full := config.Default()
	scorer, err := signalScorer(full)
	if err != nil {
		t.Fatalf("scorer: %v", err)
	}
	sim, err := NewSimulator(cfg, scorer, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return sim
}

func TestPartialExitThenBreakevenStop(t *testing.T) {
	cfg := config.Default().Backtest
	sim := newSimulator(t, cfg)
	ledger := NewLedger(8)
	sim.SetRecorder(ledger)

	bars := warmup(200)
	bars = append(bars,
		consensusLongBar(200),
		pathBar(201, 101, 103.5, 100.5, 103), // touches tp1
		pathBar(202, 102, 102.5, 99.5, 100),  // reverses through breakeven
		pathBar(203, 100, 101, 99, 100),
	)

	res, err := sim.Run(bars, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", res.TotalTrades)
	}

	trade := res.Trades[0]
	if trade.Direction != "LONG" {
		t.Fatalf("expected LONG, got %s", trade.Direction)
	}
	if math.Abs(trade.Size-40) > 1e-9 {
		t.Fatalf("2%% of 10000 over a 5-point stop should size 40, got %.4f", trade.Size)
	}
	// 30% of 40 units banked 3 points at tp1, remainder flat at breakeven
	if math.Abs(trade.PnL-36) > 1e-9 {
		t.Fatalf("expected pnl 36, got %.4f", trade.PnL)
	}
	if !trade.Win() {
		t.Fatalf("breakeven stop after a partial should still be a win")
	}
	if trade.ExitReason != ExitStopLoss {
		t.Fatalf("expected STOP_LOSS, got %s", trade.ExitReason)
	}
	if trade.Duration != 2 {
		t.Fatalf("expected duration 2 bars, got %d", trade.Duration)
	}
	if math.Abs(res.FinalBalance-10036) > 1e-9 {
		t.Fatalf("expected final balance 10036, got %.4f", res.FinalBalance)
	}
	if len(res.EquityCurve) != len(bars) {
		t.Fatalf("expected one equity point per bar, got %d for %d bars", len(res.EquityCurve), len(bars))
	}

	fills := ledger.Snapshot()
	if len(fills) != 3 {
		t.Fatalf("expected entry + partial + stop fills, got %d", len(fills))
	}
	if fills[0].Kind != FillEntry || math.Abs(fills[0].Qty-40) > 1e-9 || fills[0].Price != 100 {
		t.Fatalf("unexpected entry fill %+v", fills[0])
	}
	if fills[1].Kind != FillPartialTP || math.Abs(fills[1].Qty-12) > 1e-9 || fills[1].Price != 103 {
		t.Fatalf("unexpected partial fill %+v", fills[1])
	}
	if fills[2].Kind != FillStop || math.Abs(fills[2].Qty-28) > 1e-9 || fills[2].Price != 100 {
		t.Fatalf("unexpected stop fill %+v", fills[2])
	}
}

func TestFullTakeProfitCascadeInOneBar(t *testing.T) {
	sim := newSimulator(t, config.Default().Backtest)

	bars := warmup(200)
	bars = append(bars,
		consensusLongBar(200),
		pathBar(201, 100, 111, 100, 110), // sweeps tp1, tp2 and tp3
		pathBar(202, 110, 111, 109, 110),
	)

	res, err := sim.Run(bars, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", res.TotalTrades)
	}
	trade := res.Trades[0]
	if trade.ExitReason != ExitTakeProfit3 {
		t.Fatalf("expected TAKE_PROFIT_3, got %s", trade.ExitReason)
	}
	// 12*3 + 12*6 + 16*10
	if math.Abs(trade.PnL-268) > 1e-9 {
		t.Fatalf("expected pnl 268, got %.4f", trade.PnL)
	}
	if math.Abs(res.FinalBalance-10268) > 1e-9 {
		t.Fatalf("expected final balance 10268, got %.4f", res.FinalBalance)
	}
}

func TestShortPartialThenBreakevenStop(t *testing.T) {
	sim := newSimulator(t, config.Default().Backtest)

	bars := warmup(200)
	bars = append(bars,
		consensusShortBar(200),
		pathBar(201, 99.5, 100.5, 96.5, 97), // touches tp1 at 97
		pathBar(202, 98, 100.5, 97.5, 100),  // back up through breakeven
	)

	res, err := sim.Run(bars, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", res.TotalTrades)
	}
	trade := res.Trades[0]
	if trade.Direction != "SHORT" {
		t.Fatalf("expected SHORT, got %s", trade.Direction)
	}
	if math.Abs(trade.PnL-36) > 1e-9 {
		t.Fatalf("expected pnl 36 on the short partial, got %.4f", trade.PnL)
	}
	if trade.ExitReason != ExitStopLoss {
		t.Fatalf("expected STOP_LOSS, got %s", trade.ExitReason)
	}
}

func TestTrailingStopWithoutPartials(t *testing.T) {
	cfg := config.Default().Backtest
	cfg.PartialTP = false
	cfg.UseTrailingStop = true
	sim := newSimulator(t, cfg)

	bars := warmup(200)
	bars = append(bars,
		consensusLongBar(200),
		pathBar(201, 101, 103.2, 100.5, 103),  // crosses tp1, arms the trail
		pathBar(202, 104, 107, 104, 106.5),    // crosses tp2, trail moves past entry
		pathBar(203, 106, 106.5, 101, 101.5),  // falls back into the trail
	)

	res, err := sim.Run(bars, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", res.TotalTrades)
	}
	trade := res.Trades[0]
	if trade.ExitReason != ExitTrailingStop {
		t.Fatalf("expected TRAILING_STOP, got %s", trade.ExitReason)
	}
	// trail ratchets to 107 - 5 = 102, full 40 units exit there
	if math.Abs(trade.ExitPrice-102) > 1e-9 {
		t.Fatalf("expected exit at 102, got %.4f", trade.ExitPrice)
	}
	if math.Abs(trade.PnL-80) > 1e-9 {
		t.Fatalf("expected pnl 80, got %.4f", trade.PnL)
	}
	if math.Abs(trade.Size-40) > 1e-9 {
		t.Fatalf("full-size exit should keep size 40, got %.4f", trade.Size)
	}
}

func TestEndOfDataClosesOpenPosition(t *testing.T) {
	sim := newSimulator(t, config.Default().Backtest)

	bars := warmup(200)
	bars = append(bars,
		consensusLongBar(200),
		pathBar(201, 100, 101.5, 99.5, 100),
	)

	res, err := sim.Run(bars, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", res.TotalTrades)
	}
	trade := res.Trades[0]
	if trade.ExitReason != ExitEndOfData {
		t.Fatalf("expected END_OF_DATA, got %s", trade.ExitReason)
	}
	if math.Abs(trade.PnL) > 1e-9 {
		t.Fatalf("flat close should realize 0, got %.4f", trade.PnL)
	}
	if math.Abs(res.FinalBalance-10000) > 1e-9 {
		t.Fatalf("expected balance back at 10000, got %.4f", res.FinalBalance)
	}
}

func TestSinglePositionAndNoSameBarReentry(t *testing.T) {
	sim := newSimulator(t, config.Default().Backtest)

	bars := warmup(200)
	bars = append(bars,
		consensusLongBar(200),
		// stop hit at 95; the bar also looks bullish but no re-entry happens
		func() market.Bar {
			bar := consensusLongBar(201)
			bar.Low = 94.5
			bar.Open = 96
			bar.Close = 100
			return bar
		}(),
		consensusLongBar(202), // fresh entry on the next bar
		pathBar(203, 100, 101, 99, 100),
	)

	res, err := sim.Run(bars, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalTrades != 2 {
		t.Fatalf("expected 2 sequential trades, got %d", res.TotalTrades)
	}
	first, second := res.Trades[0], res.Trades[1]
	if first.ExitReason != ExitStopLoss {
		t.Fatalf("first trade should stop out, got %s", first.ExitReason)
	}
	if second.EntryTime.Before(first.ExitTime) {
		t.Fatalf("positions overlap: second entry %s before first exit %s",
			second.EntryTime, first.ExitTime)
	}
	if second.EntryTime.Equal(first.ExitTime) {
		t.Fatalf("re-entry happened on the closing bar")
	}
}

func TestInsufficientDataYieldsEmptyResult(t *testing.T) {
	sim := newSimulator(t, config.Default().Backtest)

	bars := warmup(10)
	res, err := sim.Run(bars, nil)
	if err != nil {
		t.Fatalf("insufficient data must not be an error: %v", err)
	}
	if res.TotalTrades != 0 || len(res.Trades) != 0 {
		t.Fatalf("expected zero trades, got %d", res.TotalTrades)
	}
	if len(res.EquityCurve) != len(bars) {
		t.Fatalf("expected a flat curve with one point per bar, got %d", len(res.EquityCurve))
	}
	for _, p := range res.EquityCurve {
		if p.Balance != 10000 {
			t.Fatalf("flat curve should hold the initial balance, got %.2f", p.Balance)
		}
	}
	if res.MaxDrawdown != 0 {
		t.Fatalf("flat curve should have zero drawdown, got %.4f", res.MaxDrawdown)
	}
}

func TestPredictionsLengthMismatchRejected(t *testing.T) {
	sim := newSimulator(t, config.Default().Backtest)
	bars := warmup(250)
	preds := make([]*market.Prediction, 3)
	if _, err := sim.Run(bars, preds); err == nil {
		t.Fatalf("expected an error for mismatched prediction slice")
	}
}

func TestNotionalCapClampsSize(t *testing.T) {
	cfg := config.Default().Backtest
	cfg.MaxNotionalPerTrade = 2000
	sim := newSimulator(t, cfg)

	bars := warmup(200)
	bars = append(bars,
		consensusLongBar(200),
		pathBar(201, 100, 101, 94.5, 95), // straight to the stop
	)

	res, err := sim.Run(bars, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", res.TotalTrades)
	}
	// uncapped sizing would be 40 units (4000 notional)
	if math.Abs(res.Trades[0].Size-20) > 1e-9 {
		t.Fatalf("expected size clamped to 20 units, got %.4f", res.Trades[0].Size)
	}
}

func TestNewSimulatorRejectsBadSettings(t *testing.T) {
	full := config.Default()
	scorer, err := signalScorer(full)
	if err != nil {
		t.Fatalf("scorer: %v", err)
	}

	cfg := full.Backtest
	cfg.InitialBalance = 0
	if _, err := NewSimulator(cfg, scorer, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for zero balance")
	}

	cfg = full.Backtest
	cfg.RiskPerTradePct = 150
	if _, err := NewSimulator(cfg, scorer, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for risk above 100%%")
	}

	if _, err := NewSimulator(full.Backtest, nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for nil scorer")
	}
}

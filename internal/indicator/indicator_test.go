package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/pilegduaempat-art/-binance-trading-bot/internal/market"
)

func TestSMA(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Fatalf("expected NaN warmup, got %v", out[:2])
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if math.Abs(out[i+2]-w) > 1e-9 {
			t.Fatalf("sma[%d]: want %.2f got %.2f", i+2, w, out[i+2])
		}
	}
}

func TestEMASeededWithSMA(t *testing.T) {
	out := EMA([]float64{2, 4, 6, 8}, 3)
	if !math.IsNaN(out[1]) {
		t.Fatalf("expected warmup NaN")
	}
	if math.Abs(out[2]-4) > 1e-9 {
		t.Fatalf("seed should be SMA(3)=4, got %.4f", out[2])
	}
	// next value: (8-4)*0.5 + 4 = 6
	if math.Abs(out[3]-6) > 1e-9 {
		t.Fatalf("ema[3]: want 6 got %.4f", out[3])
	}
}

func TestRSIExtremes(t *testing.T) {
	rising := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	out := RSI(rising, 14)
	last := out[len(out)-1]
	if math.IsNaN(last) || last < 99 {
		t.Fatalf("monotonic rise should pin RSI near 100, got %.2f", last)
	}

	falling := make([]float64, 30)
	for i := range falling {
		falling[i] = 200 - float64(i)
	}
	out = RSI(falling, 14)
	last = out[len(out)-1]
	if math.IsNaN(last) || last > 1 {
		t.Fatalf("monotonic fall should pin RSI near 0, got %.2f", last)
	}
}

func TestATRFlatSeries(t *testing.T) {
	n := 20
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 102
		lows[i] = 98
		closes[i] = 100
	}
	out := ATR(highs, lows, closes, 14)
	last := out[n-1]
	if math.Abs(last-4) > 1e-9 {
		t.Fatalf("constant 4-point range should give ATR 4, got %.4f", last)
	}
}

func TestStochasticBounds(t *testing.T) {
	n := 40
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		base := 100 + math.Sin(float64(i)/3)*5
		highs[i] = base + 1
		lows[i] = base - 1
		closes[i] = base
	}
	k, d := Stochastic(highs, lows, closes, 14, 3)
	for i := 20; i < n; i++ {
		if k[i] < 0 || k[i] > 100 {
			t.Fatalf("%%K out of range at %d: %.2f", i, k[i])
		}
		if d[i] < 0 || d[i] > 100 {
			t.Fatalf("%%D out of range at %d: %.2f", i, d[i])
		}
	}
}

func TestEnrichPopulatesIndicators(t *testing.T) {
	bars := syntheticBars(260)
	Enrich(bars, DefaultWindows())

	last := bars[len(bars)-1]
	for _, name := range []string{
		market.RSI, market.MACDDiff, market.StochK, market.BBWidth,
		market.ATR, market.CMF, market.MFI, market.ADX, market.ROC,
		market.CCI, market.WilliamsR, market.VolumeRatio,
		market.EMA9, market.EMA21, market.EMA50, market.EMA100, market.SMA200,
	} {
		if _, ok := last.Indicator(name); !ok {
			t.Fatalf("expected %s on the final bar", name)
		}
	}

	if _, ok := bars[0].Indicator(market.SMA200); ok {
		t.Fatalf("warm-up bar should not carry sma_200")
	}

	atr, _ := last.Indicator(market.ATR)
	if atr <= 0 {
		t.Fatalf("ATR should be positive, got %.4f", atr)
	}
}

func syntheticBars(n int) []market.Bar {
	bars := make([]market.Bar, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < n; i++ {
		drift := math.Sin(float64(i)/9) * 2
		open := price
		price = 100 + float64(i)*0.1 + drift
		high := math.Max(open, price) + 0.5
		low := math.Min(open, price) - 0.5
		bars[i] = market.Bar{
			Time:   start.Add(time.Duration(i) * 5 * time.Minute),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  price,
			Volume: 1000 + 50*math.Abs(drift),
		}
	}
	return bars
}

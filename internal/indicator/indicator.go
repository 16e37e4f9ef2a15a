package indicator

import (
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/market"
)

// Windows holds the lookback periods for every computed indicator.
type Windows struct {
	EMAFast     int
	EMAMedium   int
	EMASlow     int
	EMAVerySlow int
	SMALong     int
	RSI         int
	MACDFast    int
	MACDSlow    int
	MACDSignal  int
	Stoch       int
	StochD      int
	BB          int
	BBStdDev    float64
	ATR         int
	CMF         int
	MFI         int
	ADX         int
	ROC         int
	CCI         int
	WilliamsR   int
	VolumeSMA   int
}

// DefaultWindows mirrors the lookbacks the strategy was tuned with.
func DefaultWindows() Windows {
	return Windows{
		EMAFast:     9,
		EMAMedium:   21,
		EMASlow:     50,
		EMAVerySlow: 100,
		SMALong:     200,
		RSI:         14,
		MACDFast:    12,
		MACDSlow:    26,
		MACDSignal:  9,
		Stoch:       14,
		StochD:      3,
		BB:          20,
		BBStdDev:    2.0,
		ATR:         14,
		CMF:         20,
		MFI:         14,
		ADX:         14,
		ROC:         12,
		CCI:         20,
		WilliamsR:   14,
		VolumeSMA:   20,
	}
}

// Enrich computes the full indicator set over the bar sequence and stores the
// values on each bar. Warm-up positions simply stay absent from the map. The
// input order is assumed chronological.
func Enrich(bars []market.Bar, w Windows) {
	n := len(bars)
	if n == 0 {
		return
	}

	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	set := func(name string, series []float64) {
		for i := range bars {
			if valid(series[i]) {
				bars[i].SetIndicator(name, series[i])
			}
		}
	}

	set(market.EMA9, EMA(closes, w.EMAFast))
	set(market.EMA21, EMA(closes, w.EMAMedium))
	set(market.EMA50, EMA(closes, w.EMASlow))
	set(market.EMA100, EMA(closes, w.EMAVerySlow))
	set(market.SMA200, SMA(closes, w.SMALong))

	set(market.RSI, RSI(closes, w.RSI))

	macd, macdSignal, macdDiff := MACD(closes, w.MACDFast, w.MACDSlow, w.MACDSignal)
	set(market.MACD, macd)
	set(market.MACDSignal, macdSignal)
	set(market.MACDDiff, macdDiff)

	stochK, stochD := Stochastic(highs, lows, closes, w.Stoch, w.StochD)
	set(market.StochK, stochK)
	set(market.StochD, stochD)

	bbUpper, bbLower, bbWidth := Bollinger(closes, w.BB, w.BBStdDev)
	set(market.BBUpper, bbUpper)
	set(market.BBLower, bbLower)
	set(market.BBWidth, bbWidth)

	set(market.ATR, ATR(highs, lows, closes, w.ATR))
	set(market.ADX, ADX(highs, lows, closes, w.ADX))

	set(market.CMF, CMF(highs, lows, closes, volumes, w.CMF))
	set(market.MFI, MFI(highs, lows, closes, volumes, w.MFI))
	set(market.VolumeRatio, VolumeRatio(volumes, w.VolumeSMA))

	set(market.ROC, ROC(closes, w.ROC))
	set(market.CCI, CCI(highs, lows, closes, w.CCI))
	set(market.WilliamsR, WilliamsR(highs, lows, closes, w.WilliamsR))
}

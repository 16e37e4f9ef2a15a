// Package market standardizes the payloads shared between data loading, scoring, and simulation.
package market

import (
	"math"
	"time"
)

// Indicator value keys populated by the indicator pipeline.
const (
	RSI         = "rsi"
	MACD        = "macd"
	MACDSignal  = "macd_signal"
	MACDDiff    = "macd_diff"
	StochK      = "stoch_k"
	StochD      = "stoch_d"
	BBUpper     = "bb_upper"
	BBLower     = "bb_lower"
	BBWidth     = "bb_width"
	ATR         = "atr"
	CMF         = "cmf"
	MFI         = "mfi"
	ADX         = "adx"
	ROC         = "roc"
	CCI         = "cci"
	WilliamsR   = "williams_r"
	VolumeRatio = "volume_ratio"
	EMA9        = "ema_9"
	EMA21       = "ema_21"
	EMA50       = "ema_50"
	EMA100      = "ema_100"
	SMA200      = "sma_200"
)

// Bar is one OHLCV candle plus the indicator values computed for it.
// Bars are owned by the caller; the engines treat them as read-only.
type Bar struct {
	Time       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	Indicators map[string]float64
}

// Indicator returns the named value when it is present and finite.
func (b Bar) Indicator(name string) (float64, bool) {
	v, ok := b.Indicators[name]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// SetIndicator stores a value, allocating the map on first use. NaN markers
// for warm-up bars are kept out of the map so Indicator reports them absent.
func (b *Bar) SetIndicator(name string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if b.Indicators == nil {
		b.Indicators = make(map[string]float64)
	}
	b.Indicators[name] = v
}

// Valid reports whether the OHLCV fields are finite and positive.
func (b Bar) Valid() bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if b.Volume < 0 || math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) {
		return false
	}
	return b.Low <= b.High
}

// OrderBook is a depth snapshot reduced to the aggregate bid/ask volumes the
// scorer cares about.
type OrderBook struct {
	BidVolume float64
	AskVolume float64
}

// Imbalance returns (bids-asks)/(bids+asks) in [-1,1], 0 on an empty book.
func (ob OrderBook) Imbalance() float64 {
	total := ob.BidVolume + ob.AskVolume
	if total <= 0 {
		return 0
	}
	return (ob.BidVolume - ob.AskVolume) / total
}

// Funding is a funding-rate snapshot for a perpetual contract.
type Funding struct {
	Rate float64
}

// Prediction labels understood by the scorer.
const (
	Bullish = "BULLISH"
	Bearish = "BEARISH"
)

// Prediction is an externally trained classifier's view of the next move.
// Confidence is a percentage in [0,100].
type Prediction struct {
	Label      string
	Confidence float64
}

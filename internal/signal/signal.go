// Package signal turns a bar of indicator values into a directional trading
// signal with explicit risk levels.
package signal

import (
	"time"

	"github.com/pilegduaempat-art/-binance-trading-bot/internal/market"
)

// Direction of a produced signal.
type Direction string

const (
	// Long indicates a buy-side setup.
	Long Direction = "LONG"
	// Short indicates a sell-side setup.
	Short Direction = "SHORT"
)

// Sign returns +1 for long, -1 for short.
func (d Direction) Sign() float64 {
	if d == Short {
		return -1
	}
	return 1
}

// Signal is a complete trade setup: direction, conviction, and price levels.
// Instances are immutable once returned by the scorer.
type Signal struct {
	Direction     Direction
	Score         int
	Confidence    float64
	Contributions map[string]int
	Entry         float64
	StopLoss      float64
	TP1           float64
	TP2           float64
	TP3           float64
	RiskReward    float64
	Time          time.Time
}

// Input bundles everything the scorer may consult for one bar. Recent holds
// the bars strictly before Bar in chronological order; Book, Funding, and
// Prediction are optional.
type Input struct {
	Bar        market.Bar
	Recent     []market.Bar
	Book       *market.OrderBook
	Funding    *market.Funding
	Prediction *market.Prediction
}

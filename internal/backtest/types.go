// Package backtest replays candle history through the signal scorer and
// simulates the resulting trade lifecycle.
package backtest

import (
	"time"

	"github.com/pilegduaempat-art/-binance-trading-bot/internal/signal"
)

// ExitReason describes why a trade was (fully) closed.
type ExitReason string

const (
	ExitStopLoss     ExitReason = "STOP_LOSS"
	ExitTakeProfit1  ExitReason = "TAKE_PROFIT_1"
	ExitTakeProfit2  ExitReason = "TAKE_PROFIT_2"
	ExitTakeProfit3  ExitReason = "TAKE_PROFIT_3"
	ExitTrailingStop ExitReason = "TRAILING_STOP"
	ExitEndOfData    ExitReason = "END_OF_DATA"
)

// Trade is one completed round trip. ExitPrice is the size-weighted average
// across partial exits. Trades are immutable once closed.
type Trade struct {
	Direction  signal.Direction `json:"direction"`
	EntryTime  time.Time        `json:"entry_time"`
	EntryPrice float64          `json:"entry_price"`
	ExitTime   time.Time        `json:"exit_time"`
	ExitPrice  float64          `json:"exit_price"`
	Size       float64          `json:"size"`
	PnL        float64          `json:"pnl"`
	PnLPct     float64          `json:"pnl_pct"`
	Duration   int              `json:"duration"`
	ExitReason ExitReason       `json:"exit_reason"`
}

// Win reports whether the trade closed with a positive PnL.
func (t Trade) Win() bool { return t.PnL > 0 }

// Side of a simulated fill.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// FillKind tags what lifecycle step produced a fill.
type FillKind string

const (
	FillEntry     FillKind = "ENTRY"
	FillPartialTP FillKind = "PARTIAL_TP"
	FillStop      FillKind = "STOP"
	FillFinalTP   FillKind = "FINAL_TP"
	FillEndOfData FillKind = "END_OF_DATA"
)

// Fill is a single simulated execution inside a trade's lifecycle.
type Fill struct {
	Time  time.Time `json:"time"`
	Kind  FillKind  `json:"kind"`
	Side  Side      `json:"side"`
	Qty   float64   `json:"qty"`
	Price float64   `json:"price"`
	PnL   float64   `json:"pnl"`
}

// EquityPoint marks realized balance plus mark-to-market value at one bar.
type EquityPoint struct {
	Time    time.Time `json:"time"`
	Balance float64   `json:"balance"`
}

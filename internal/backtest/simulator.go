package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/pilegduaempat-art/-binance-trading-bot/internal/config"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/market"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/metrics"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/risk"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/signal"
)

const (
	// fixed partial take-profit split across tp1/tp2/tp3
	tp1Fraction = 0.30
	tp2Fraction = 0.30

	// bars of context handed to the scorer for structure rules
	recentLookback = 50
)

type posState int

const (
	stateOpen posState = iota
	statePartialTP1
	statePartialTP2
)

// position is the single open trade slot. Partial exits accumulate into
// realized/exitNotional until the slot closes and becomes a Trade.
type position struct {
	dir        signal.Direction
	entryTime  time.Time
	entryIndex int

	entry    float64
	stop     float64
	stopDist float64
	tp1      float64
	tp2      float64
	tp3      float64

	size      float64
	remaining float64

	realized     float64
	exitNotional float64
	exitQty      float64

	state   posState
	trailed bool
}

// ratchet moves the stop in the favorable direction only.
func (p *position) ratchet(level float64) {
	if p.dir == signal.Long {
		if level > p.stop {
			p.stop = level
			if level > p.entry {
				p.trailed = true
			}
		}
		return
	}
	if level < p.stop {
		p.stop = level
		if level < p.entry {
			p.trailed = true
		}
	}
}

func (p *position) trade(reason ExitReason, ts time.Time, index int) Trade {
	exitPrice := p.entry
	if p.exitQty > 0 {
		exitPrice = p.exitNotional / p.exitQty
	}
	pct := 0.0
	if notional := p.entry * p.size; notional > 0 {
		pct = p.realized / notional * 100
	}
	return Trade{
		Direction:  p.dir,
		EntryTime:  p.entryTime,
		EntryPrice: p.entry,
		ExitTime:   ts,
		ExitPrice:  exitPrice,
		Size:       p.size,
		PnL:        p.realized,
		PnLPct:     pct,
		Duration:   index - p.entryIndex,
		ExitReason: reason,
	}
}

// Simulator replays bars through the scorer and manages one position at a
// time. Bars are read-only; all produced values belong to a single Run.
type Simulator struct {
	cfg      config.Backtest
	scorer   *signal.Scorer
	limits   risk.Limits
	log      zerolog.Logger
	recorder FillRecorder
}

// NewSimulator validates the backtest settings and returns a simulator.
func NewSimulator(cfg config.Backtest, scorer *signal.Scorer, log zerolog.Logger) (*Simulator, error) {
	if scorer == nil {
		return nil, fmt.Errorf("backtest: nil scorer")
	}
	if cfg.InitialBalance <= 0 {
		return nil, fmt.Errorf("backtest: initial balance must be positive, got %.2f", cfg.InitialBalance)
	}
	if cfg.RiskPerTradePct <= 0 || cfg.RiskPerTradePct > 100 {
		return nil, fmt.Errorf("backtest: risk per trade must be in (0,100], got %.2f", cfg.RiskPerTradePct)
	}
	return &Simulator{
		cfg:    cfg,
		scorer: scorer,
		limits: risk.Limits{MaxNotionalPerTrade: cfg.MaxNotionalPerTrade},
		log:    log.With().Str("component", "backtest").Logger(),
	}, nil
}

// SetRecorder routes every simulated fill to r. Pass nil to disable.
func (s *Simulator) SetRecorder(r FillRecorder) { s.recorder = r }

// Run walks the bars chronologically with no lookahead and returns the
// summarized result. preds, when non-nil, must align one-to-one with bars;
// nil entries mean no prediction for that bar. Fewer than MinCandles bars
// yields an empty result with a flat equity curve.
func (s *Simulator) Run(bars []market.Bar, preds []*market.Prediction) (*Result, error) {
	if preds != nil && len(preds) != len(bars) {
		return nil, fmt.Errorf("backtest: %d predictions for %d bars", len(preds), len(bars))
	}
	if len(bars) < s.cfg.MinCandles {
		s.log.Warn().
			Int("bars", len(bars)).
			Int("min_candles", s.cfg.MinCandles).
			Msg("not enough history, returning empty result")
		curve := make([]EquityPoint, 0, len(bars))
		for _, bar := range bars {
			curve = append(curve, EquityPoint{Time: bar.Time, Balance: s.cfg.InitialBalance})
		}
		return Summarize(nil, curve, s.cfg.InitialBalance), nil
	}

	balance := s.cfg.InitialBalance
	trades := make([]Trade, 0, 64)
	curve := make([]EquityPoint, 0, len(bars))

	var pos *position
	lastEquity := balance
	var lastClose float64
	var lastTime time.Time

	for i := range bars {
		bar := bars[i]
		if !bar.Valid() {
			// carry equity forward over a broken bar
			curve = append(curve, EquityPoint{Time: bar.Time, Balance: lastEquity})
			continue
		}
		lastClose = bar.Close
		lastTime = bar.Time

		closedThisBar := false
		if pos != nil {
			if done, trade := s.updatePosition(pos, bar, i); done {
				balance += pos.realized
				trades = append(trades, trade)
				metrics.TradesTotal.WithLabelValues(string(trade.ExitReason)).Inc()
				s.log.Debug().
					Str("direction", string(trade.Direction)).
					Str("reason", string(trade.ExitReason)).
					Float64("pnl", trade.PnL).
					Msg("trade closed")
				pos = nil
				closedThisBar = true
			}
		}

		// no re-entry on the bar a position closed
		if pos == nil && !closedThisBar {
			metrics.BarsEvaluated.Inc()
			start := i - recentLookback
			if start < 0 {
				start = 0
			}
			var pred *market.Prediction
			if preds != nil {
				pred = preds[i]
			}
			if sig := s.scorer.Score(signal.Input{Bar: bar, Recent: bars[start:i], Prediction: pred}); sig != nil {
				if pos = s.open(sig, balance, i); pos != nil {
					metrics.SignalsTotal.WithLabelValues(string(sig.Direction)).Inc()
				}
			}
		}

		equity := balance
		if pos != nil {
			equity += pos.realized + (bar.Close-pos.entry)*pos.dir.Sign()*pos.remaining
		}
		lastEquity = equity
		curve = append(curve, EquityPoint{Time: bar.Time, Balance: equity})
	}

	if pos != nil {
		s.exit(pos, lastClose, pos.remaining, FillEndOfData, lastTime)
		trade := pos.trade(ExitEndOfData, lastTime, len(bars)-1)
		balance += pos.realized
		trades = append(trades, trade)
		metrics.TradesTotal.WithLabelValues(string(ExitEndOfData)).Inc()
		if len(curve) > 0 {
			curve[len(curve)-1].Balance = balance
		}
	}

	metrics.BacktestRunsTotal.Inc()
	s.log.Info().
		Int("bars", len(bars)).
		Int("trades", len(trades)).
		Float64("final_balance", balance).
		Msg("backtest complete")
	return Summarize(trades, curve, s.cfg.InitialBalance), nil
}

func (s *Simulator) open(sig *signal.Signal, balance float64, index int) *position {
	size := risk.PositionSize(balance, s.cfg.RiskPerTradePct, sig.Entry, sig.StopLoss)
	if size <= 0 {
		return nil
	}
	if !s.limits.Allow(size * sig.Entry) {
		size = s.limits.MaxNotionalPerTrade / sig.Entry
	}
	pos := &position{
		dir:        sig.Direction,
		entryTime:  sig.Time,
		entryIndex: index,
		entry:      sig.Entry,
		stop:       sig.StopLoss,
		stopDist:   math.Abs(sig.Entry - sig.StopLoss),
		tp1:        sig.TP1,
		tp2:        sig.TP2,
		tp3:        sig.TP3,
		size:       size,
		remaining:  size,
		state:      stateOpen,
	}
	s.record(Fill{Time: sig.Time, Kind: FillEntry, Side: entrySide(pos.dir), Qty: size, Price: sig.Entry})
	s.log.Debug().
		Str("direction", string(sig.Direction)).
		Int("score", sig.Score).
		Float64("confidence", sig.Confidence).
		Float64("entry", sig.Entry).
		Float64("size", size).
		Msg("position opened")
	return pos
}

// updatePosition applies one bar to the open position. The stop is checked
// before take-profits so a bar spanning both resolves conservatively.
func (s *Simulator) updatePosition(pos *position, bar market.Bar, index int) (bool, Trade) {
	stopHit := func(level float64) bool {
		if pos.dir == signal.Long {
			return bar.Low <= level
		}
		return bar.High >= level
	}
	tpHit := func(level float64) bool {
		if pos.dir == signal.Long {
			return bar.High >= level
		}
		return bar.Low <= level
	}

	if stopHit(pos.stop) {
		reason := ExitStopLoss
		if pos.trailed {
			reason = ExitTrailingStop
		}
		s.exit(pos, pos.stop, pos.remaining, FillStop, bar.Time)
		return true, pos.trade(reason, bar.Time, index)
	}

	if s.cfg.PartialTP {
		if pos.state == stateOpen && tpHit(pos.tp1) {
			s.exit(pos, pos.tp1, pos.size*tp1Fraction, FillPartialTP, bar.Time)
			pos.state = statePartialTP1
			pos.ratchet(pos.entry)
		}
		if pos.state == statePartialTP1 && tpHit(pos.tp2) {
			s.exit(pos, pos.tp2, pos.size*tp2Fraction, FillPartialTP, bar.Time)
			pos.state = statePartialTP2
		}
		if pos.state == statePartialTP2 && tpHit(pos.tp3) {
			s.exit(pos, pos.tp3, pos.remaining, FillFinalTP, bar.Time)
			return true, pos.trade(ExitTakeProfit3, bar.Time, index)
		}
	} else {
		// full-size exits only; tp crossings still arm the trailing stop
		if pos.state == stateOpen && tpHit(pos.tp1) {
			pos.state = statePartialTP1
		}
		if pos.state == statePartialTP1 && tpHit(pos.tp2) {
			pos.state = statePartialTP2
		}
		if tpHit(pos.tp3) {
			s.exit(pos, pos.tp3, pos.remaining, FillFinalTP, bar.Time)
			return true, pos.trade(ExitTakeProfit3, bar.Time, index)
		}
	}

	if s.cfg.UseTrailingStop && pos.state >= statePartialTP1 {
		if pos.dir == signal.Long {
			pos.ratchet(bar.High - pos.stopDist)
		} else {
			pos.ratchet(bar.Low + pos.stopDist)
		}
	}
	return false, Trade{}
}

func (s *Simulator) exit(pos *position, price, qty float64, kind FillKind, ts time.Time) {
	if qty > pos.remaining {
		qty = pos.remaining
	}
	pnl := (price - pos.entry) * pos.dir.Sign() * qty
	pos.realized += pnl
	pos.remaining -= qty
	pos.exitNotional += price * qty
	pos.exitQty += qty
	s.record(Fill{Time: ts, Kind: kind, Side: exitSide(pos.dir), Qty: qty, Price: price, PnL: pnl})
}

func (s *Simulator) record(fill Fill) {
	if s.recorder != nil {
		s.recorder.Record(fill)
	}
}

func entrySide(d signal.Direction) Side {
	if d == signal.Long {
		return Buy
	}
	return Sell
}

func exitSide(d signal.Direction) Side {
	if d == signal.Long {
		return Sell
	}
	return Buy
}

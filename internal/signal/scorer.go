package signal

import (
	"fmt"
	"math"

	"github.com/pilegduaempat-art/-binance-trading-bot/internal/config"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/market"
)

// scoreSaturation is the |score| at which the confidence ramp tops out.
const scoreSaturation = 20.0

// Scorer combines the weighted factor categories into directional signals.
// A Scorer is pure and safe for concurrent use on independent inputs.
type Scorer struct {
	cfg        config.Signal
	levels     config.Thresholds
	categories []Category
}

// NewScorer validates the configuration and builds the default rule set.
func NewScorer(cfg config.Signal, levels config.Thresholds) (*Scorer, error) {
	if cfg.MinScoreLong <= 0 || cfg.MinScoreShort >= 0 {
		return nil, fmt.Errorf("signal: score thresholds must satisfy long > 0 > short, got %d/%d",
			cfg.MinScoreLong, cfg.MinScoreShort)
	}
	if cfg.MinConfidence > cfg.MaxConfidence {
		return nil, fmt.Errorf("signal: min confidence %.1f exceeds max %.1f", cfg.MinConfidence, cfg.MaxConfidence)
	}
	for _, mult := range []float64{cfg.ATRMultiplierSL, cfg.ATRMultiplierTP1, cfg.ATRMultiplierTP2, cfg.ATRMultiplierTP3} {
		if mult <= 0 {
			return nil, fmt.Errorf("signal: ATR multipliers must be positive")
		}
	}
	if cfg.ATRMultiplierTP1 >= cfg.ATRMultiplierTP2 || cfg.ATRMultiplierTP2 >= cfg.ATRMultiplierTP3 {
		return nil, fmt.Errorf("signal: take-profit multipliers must be strictly increasing")
	}
	return &Scorer{cfg: cfg, levels: levels, categories: defaultCategories()}, nil
}

// Score evaluates one bar and returns a trade setup, or nil when no factor
// consensus exists. Malformed inputs yield nil, never an error: a bar the
// rules cannot read is simply not a setup.
func (s *Scorer) Score(in Input) *Signal {
	bar := in.Bar
	if !bar.Valid() {
		return nil
	}
	atr, ok := bar.Indicator(market.ATR)
	if !ok || atr <= 0 {
		return nil
	}

	ctx := &Context{
		Bar:     bar,
		Recent:  in.Recent,
		Book:    in.Book,
		Funding: in.Funding,
		Levels:  s.levels,
	}
	if n := len(in.Recent); n > 0 {
		ctx.Prev = &in.Recent[n-1]
	}

	score := 0
	contributions := make(map[string]int, len(s.categories)+1)
	for _, cat := range s.categories {
		weighted := cat.Weighted(cat.Raw(ctx))
		contributions[cat.Name] = weighted
		score += weighted
	}

	if term := s.mlTerm(in.Prediction); term != 0 {
		contributions["ml"] = term
		score += term
	}

	var dir Direction
	switch {
	case score >= s.cfg.MinScoreLong:
		dir = Long
	case score <= s.cfg.MinScoreShort:
		dir = Short
	default:
		return nil
	}

	entry := bar.Close
	stopDistance := atr * s.cfg.ATRMultiplierSL
	sign := dir.Sign()

	sig := &Signal{
		Direction:     dir,
		Score:         score,
		Confidence:    s.confidence(score, dir, contributions),
		Contributions: contributions,
		Entry:         entry,
		StopLoss:      entry - sign*stopDistance,
		TP1:           entry + sign*atr*s.cfg.ATRMultiplierTP1,
		TP2:           entry + sign*atr*s.cfg.ATRMultiplierTP2,
		TP3:           entry + sign*atr*s.cfg.ATRMultiplierTP3,
		RiskReward:    s.cfg.ATRMultiplierTP1 / s.cfg.ATRMultiplierSL,
		Time:          bar.Time,
	}
	return sig
}

// mlTerm converts an optional external prediction into one extra signed
// contribution scaled by its confidence. It can tip a borderline score but
// never replaces the rule-based consensus.
func (s *Scorer) mlTerm(pred *market.Prediction) int {
	if pred == nil || s.cfg.MLWeight == 0 {
		return 0
	}
	conf := pred.Confidence
	if conf < 0 || conf > 100 || math.IsNaN(conf) {
		return 0
	}
	term := int(math.Round(conf / 100 * float64(s.cfg.MLWeight)))
	switch pred.Label {
	case market.Bullish:
		return term
	case market.Bearish:
		return -term
	}
	return 0
}

// confidence maps |score| and cross-category agreement into the configured
// band. Both inputs move it monotonically.
func (s *Scorer) confidence(score int, dir Direction, contributions map[string]int) float64 {
	strength := math.Min(math.Abs(float64(score))/scoreSaturation, 1)

	agreeing := 0
	for _, cat := range s.categories {
		c := contributions[cat.Name]
		if (dir == Long && c > 0) || (dir == Short && c < 0) {
			agreeing++
		}
	}
	agreement := float64(agreeing) / float64(len(s.categories))

	span := s.cfg.MaxConfidence - s.cfg.MinConfidence
	conf := s.cfg.MinConfidence + span*(0.6*strength+0.4*agreement)
	return math.Min(math.Max(conf, s.cfg.MinConfidence), s.cfg.MaxConfidence)
}

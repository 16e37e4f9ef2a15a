package signal

import (
	"math"

	"github.com/pilegduaempat-art/-binance-trading-bot/internal/config"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/market"
)

// Context is the read-only view a rule evaluates against.
type Context struct {
	Bar     market.Bar
	Prev    *market.Bar
	Recent  []market.Bar
	Book    *market.OrderBook
	Funding *market.Funding
	Levels  config.Thresholds
}

// Rule is one named, independently testable scoring heuristic. Eval returns a
// bounded signed contribution in [-2, 2]; 0 means no opinion.
type Rule struct {
	Name string
	Eval func(*Context) int
}

// Category groups rules under one of the five factor families and carries the
// family weight in percent.
type Category struct {
	Name   string
	Weight int
	Rules  []Rule
}

// Raw sums the contributions of every rule in the category.
func (c Category) Raw(ctx *Context) int {
	total := 0
	for _, r := range c.Rules {
		total += r.Eval(ctx)
	}
	return total
}

// Weighted scales a raw category sum by the family weight. Weights are
// percentages; a weight of 10 passes contributions through unchanged.
func (c Category) Weighted(raw int) int {
	return int(math.Round(float64(raw) * float64(c.Weight) / 10.0))
}

// defaultCategories builds the ordered factor set: trend, momentum, volume,
// structure, order flow.
func defaultCategories() []Category {
	return []Category{
		{Name: "trend", Weight: 30, Rules: []Rule{
			{Name: "ema_stack", Eval: emaStack},
			{Name: "adx_strength", Eval: adxStrength},
			{Name: "long_term_bias", Eval: longTermBias},
		}},
		{Name: "momentum", Weight: 25, Rules: []Rule{
			{Name: "rsi_zone", Eval: rsiZone},
			{Name: "macd_histogram", Eval: macdHistogram},
			{Name: "stoch_cross", Eval: stochCross},
		}},
		{Name: "volume", Weight: 20, Rules: []Rule{
			{Name: "cmf_flow", Eval: cmfFlow},
			{Name: "mfi_zone", Eval: mfiZone},
			{Name: "volume_surge", Eval: volumeSurge},
		}},
		{Name: "structure", Weight: 15, Rules: []Rule{
			{Name: "swing_structure", Eval: swingStructure},
			{Name: "order_block", Eval: orderBlock},
			{Name: "fair_value_gap", Eval: fairValueGap},
		}},
		{Name: "orderflow", Weight: 10, Rules: []Rule{
			{Name: "book_imbalance", Eval: bookImbalance},
			{Name: "funding_bias", Eval: fundingBias},
		}},
	}
}

// --- trend ---

func emaStack(ctx *Context) int {
	fast, okF := ctx.Bar.Indicator(market.EMA9)
	medium, okM := ctx.Bar.Indicator(market.EMA21)
	slow, okS := ctx.Bar.Indicator(market.EMA50)
	if !okF || !okM {
		return 0
	}
	if okS {
		if fast > medium && medium > slow {
			return 2
		}
		if fast < medium && medium < slow {
			return -2
		}
	}
	if fast > medium {
		return 1
	}
	if fast < medium {
		return -1
	}
	return 0
}

func adxStrength(ctx *Context) int {
	adx, ok := ctx.Bar.Indicator(market.ADX)
	if !ok || adx < ctx.Levels.ADXStrongTrend {
		return 0
	}
	dir := emaStack(ctx)
	if dir == 0 {
		return 0
	}
	mag := 1
	if adx >= ctx.Levels.ADXVeryStrongTrend {
		mag = 2
	}
	if dir < 0 {
		return -mag
	}
	return mag
}

func longTermBias(ctx *Context) int {
	sma, ok := ctx.Bar.Indicator(market.SMA200)
	if !ok {
		return 0
	}
	if ctx.Bar.Close > sma {
		return 1
	}
	if ctx.Bar.Close < sma {
		return -1
	}
	return 0
}

// --- momentum ---

func rsiZone(ctx *Context) int {
	rsi, ok := ctx.Bar.Indicator(market.RSI)
	if !ok {
		return 0
	}
	switch {
	case rsi <= ctx.Levels.RSIExtremeOversold:
		return 2
	case rsi <= ctx.Levels.RSIOversold:
		return 1
	case rsi >= ctx.Levels.RSIExtremeOverbought:
		return -2
	case rsi >= ctx.Levels.RSIOverbought:
		return -1
	}
	return 0
}

func macdHistogram(ctx *Context) int {
	hist, ok := ctx.Bar.Indicator(market.MACDDiff)
	if !ok || hist == 0 {
		return 0
	}
	score := 1
	if hist < 0 {
		score = -1
	}
	if ctx.Prev != nil {
		if prev, okP := ctx.Prev.Indicator(market.MACDDiff); okP {
			// widening histogram in the same direction doubles the vote
			if hist > 0 && hist > prev {
				score = 2
			}
			if hist < 0 && hist < prev {
				score = -2
			}
		}
	}
	return score
}

const (
	stochOversold   = 20.0
	stochOverbought = 80.0
)

func stochCross(ctx *Context) int {
	k, okK := ctx.Bar.Indicator(market.StochK)
	d, okD := ctx.Bar.Indicator(market.StochD)
	if !okK {
		return 0
	}

	if okD && ctx.Prev != nil {
		prevK, okPK := ctx.Prev.Indicator(market.StochK)
		prevD, okPD := ctx.Prev.Indicator(market.StochD)
		if okPK && okPD {
			if prevK <= prevD && k > d && k < stochOversold {
				return 2
			}
			if prevK >= prevD && k < d && k > stochOverbought {
				return -2
			}
		}
	}
	if k < stochOversold {
		return 1
	}
	if k > stochOverbought {
		return -1
	}
	return 0
}

// --- volume ---

func cmfFlow(ctx *Context) int {
	cmf, ok := ctx.Bar.Indicator(market.CMF)
	if !ok {
		return 0
	}
	if cmf >= ctx.Levels.CMFBullish {
		return 1
	}
	if cmf <= ctx.Levels.CMFBearish {
		return -1
	}
	return 0
}

func mfiZone(ctx *Context) int {
	mfi, ok := ctx.Bar.Indicator(market.MFI)
	if !ok {
		return 0
	}
	if mfi <= ctx.Levels.MFIOversold {
		return 1
	}
	if mfi >= ctx.Levels.MFIOverbought {
		return -1
	}
	return 0
}

func volumeSurge(ctx *Context) int {
	ratio, ok := ctx.Bar.Indicator(market.VolumeRatio)
	if !ok || ratio < ctx.Levels.HighVolumeRatio {
		return 0
	}
	// heavy volume confirms the direction of the candle it printed on
	if ctx.Bar.Close > ctx.Bar.Open {
		return 1
	}
	if ctx.Bar.Close < ctx.Bar.Open {
		return -1
	}
	return 0
}

// --- structure ---

const (
	swingWindow     = 10
	structureLookup = 15
)

func swingStructure(ctx *Context) int {
	window := append(append([]market.Bar(nil), ctx.Recent...), ctx.Bar)
	if len(window) < 2*swingWindow {
		return 0
	}
	later := window[len(window)-swingWindow:]
	earlier := window[len(window)-2*swingWindow : len(window)-swingWindow]

	hh := maxHigh(later) > maxHigh(earlier)
	hl := minLow(later) > minLow(earlier)
	lh := maxHigh(later) < maxHigh(earlier)
	ll := minLow(later) < minLow(earlier)

	switch {
	case hh && hl:
		return 2
	case lh && ll:
		return -2
	case hh:
		return 1
	case ll:
		return -1
	}
	return 0
}

// orderBlock looks for the last opposing candle before a displacement move
// and scores it when price trades back near that zone.
func orderBlock(ctx *Context) int {
	atr, ok := ctx.Bar.Indicator(market.ATR)
	if !ok || atr <= 0 {
		return 0
	}
	recent := ctx.Recent
	if len(recent) < 3 {
		return 0
	}
	start := len(recent) - structureLookup
	if start < 1 {
		start = 1
	}
	for i := len(recent) - 1; i >= start; i-- {
		prev, cur := recent[i-1], recent[i]
		displacement := cur.Close - cur.Open
		if displacement > atr && prev.Close < prev.Open {
			// bullish order block at the down candle preceding the thrust
			if math.Abs(ctx.Bar.Close-prev.Low) <= 2*atr && ctx.Bar.Close > prev.Low {
				return 1
			}
			return 0
		}
		if -displacement > atr && prev.Close > prev.Open {
			if math.Abs(prev.High-ctx.Bar.Close) <= 2*atr && ctx.Bar.Close < prev.High {
				return -1
			}
			return 0
		}
	}
	return 0
}

// fairValueGap scores continuation through the most recent three-candle gap.
func fairValueGap(ctx *Context) int {
	recent := ctx.Recent
	if len(recent) < 3 {
		return 0
	}
	start := len(recent) - structureLookup
	if start < 2 {
		start = 2
	}
	for i := len(recent) - 1; i >= start; i-- {
		left, right := recent[i-2], recent[i]
		if right.Low > left.High && ctx.Bar.Close > right.Low {
			return 1
		}
		if right.High < left.Low && ctx.Bar.Close < right.High {
			return -1
		}
	}
	return 0
}

// --- order flow ---

func bookImbalance(ctx *Context) int {
	if ctx.Book == nil {
		return 0
	}
	imbalance := ctx.Book.Imbalance()
	switch {
	case imbalance >= ctx.Levels.ImbalanceBullish:
		return 2
	case imbalance >= ctx.Levels.ImbalanceBullish/2:
		return 1
	case imbalance <= ctx.Levels.ImbalanceBearish:
		return -2
	case imbalance <= ctx.Levels.ImbalanceBearish/2:
		return -1
	}
	return 0
}

// fundingBias fades the crowded side: strongly positive funding means longs
// pay shorts, a bearish tell, and vice versa.
func fundingBias(ctx *Context) int {
	if ctx.Funding == nil {
		return 0
	}
	const threshold = 0.0001
	if ctx.Funding.Rate > threshold {
		return -1
	}
	if ctx.Funding.Rate < -threshold {
		return 1
	}
	return 0
}

func maxHigh(bars []market.Bar) float64 {
	hi := math.Inf(-1)
	for _, b := range bars {
		if b.High > hi {
			hi = b.High
		}
	}
	return hi
}

func minLow(bars []market.Bar) float64 {
	lo := math.Inf(1)
	for _, b := range bars {
		if b.Low < lo {
			lo = b.Low
		}
	}
	return lo
}

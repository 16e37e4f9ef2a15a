// Package risk encodes guard-rails for how much size a trade may take on.
package risk

// Limits caps exposure per trade.
type Limits struct {
	MaxNotionalPerTrade float64
}

// Allow reports whether a notional amount fits within the limits. A zero
// limit disables the check.
func (l Limits) Allow(notional float64) bool {
	if l.MaxNotionalPerTrade <= 0 {
		return true
	}
	return notional <= l.MaxNotionalPerTrade
}

// PositionSize returns the unit size that risks riskPct percent of balance
// between entry and stop. Invalid inputs yield 0.
func PositionSize(balance, riskPct, entry, stop float64) float64 {
	if balance <= 0 || riskPct <= 0 {
		return 0
	}
	distance := entry - stop
	if distance < 0 {
		distance = -distance
	}
	if distance == 0 {
		return 0
	}
	return balance * riskPct / 100 / distance
}

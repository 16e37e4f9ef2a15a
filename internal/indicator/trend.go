package indicator

import "math"

// TrueRange returns the per-bar true range series.
func TrueRange(highs, lows, closes []float64) []float64 {
	tr := make([]float64, len(closes))
	for i := range closes {
		if i == 0 {
			tr[i] = highs[i] - lows[i]
			continue
		}
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}

// ATR is Wilder's average true range over p.
func ATR(highs, lows, closes []float64, p int) []float64 {
	return wilder(TrueRange(highs, lows, closes), p)
}

// ADX computes the average directional index over p.
func ADX(highs, lows, closes []float64, p int) []float64 {
	out := nanSlice(len(closes))
	if p <= 0 || len(closes) < 2*p {
		return out
	}

	plusDM := make([]float64, len(closes))
	minusDM := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	atr := wilder(TrueRange(highs, lows, closes), p)
	smPlus := wilder(plusDM[1:], p)
	smMinus := wilder(minusDM[1:], p)

	dx := nanSlice(len(closes))
	for i := p; i < len(closes); i++ {
		a := atr[i]
		if !valid(a) || a == 0 || !valid(smPlus[i-1]) || !valid(smMinus[i-1]) {
			continue
		}
		plusDI := 100 * smPlus[i-1] / a
		minusDI := 100 * smMinus[i-1] / a
		sum := plusDI + minusDI
		if sum == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
	}

	adx := wilder(dx[p:], p)
	for i := 2*p - 1; i < len(closes); i++ {
		if valid(adx[i-p]) {
			out[i] = adx[i-p]
		}
	}
	return out
}

// Bollinger returns the upper band, lower band, and relative width for
// period p and the given standard deviation multiplier.
func Bollinger(closes []float64, p int, mult float64) (upper, lower, width []float64) {
	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))
	width = nanSlice(len(closes))

	mean, std := MeanStd(closes, p)
	for i := range closes {
		if !valid(mean[i]) || mean[i] == 0 {
			continue
		}
		upper[i] = mean[i] + mult*std[i]
		lower[i] = mean[i] - mult*std[i]
		width[i] = (upper[i] - lower[i]) / mean[i]
	}
	return upper, lower, width
}

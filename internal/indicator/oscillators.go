package indicator

import "math"

// RSI computes Wilder's relative strength index over p.
func RSI(closes []float64, p int) []float64 {
	out := nanSlice(len(closes))
	if p <= 0 || len(closes) < p+1 {
		return out
	}
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}
	avgGain := wilder(gains[1:], p)
	avgLoss := wilder(losses[1:], p)
	for i := p; i < len(closes); i++ {
		g, l := avgGain[i-1], avgLoss[i-1]
		if !valid(g) || !valid(l) {
			continue
		}
		if l == 0 {
			out[i] = 100
			continue
		}
		rs := g / l
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACD returns the MACD line, signal line, and histogram for the given periods.
func MACD(closes []float64, fast, slow, signalP int) (line, signal, hist []float64) {
	line = nanSlice(len(closes))
	signal = nanSlice(len(closes))
	hist = nanSlice(len(closes))

	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	start := -1
	for i := range closes {
		if valid(emaFast[i]) && valid(emaSlow[i]) {
			line[i] = emaFast[i] - emaSlow[i]
			if start < 0 {
				start = i
			}
		}
	}
	if start < 0 || len(closes)-start < signalP {
		return line, signal, hist
	}

	sig := EMA(line[start:], signalP)
	for i := start; i < len(closes); i++ {
		if valid(sig[i-start]) {
			signal[i] = sig[i-start]
			hist[i] = line[i] - signal[i]
		}
	}
	return line, signal, hist
}

// Stochastic returns %K over p and %D as an SMA(dp) of %K.
func Stochastic(highs, lows, closes []float64, p, dp int) (k, d []float64) {
	k = nanSlice(len(closes))
	hh := highest(highs, p)
	ll := lowest(lows, p)
	for i := p - 1; i < len(closes); i++ {
		span := hh[i] - ll[i]
		if span == 0 {
			k[i] = 50
			continue
		}
		k[i] = 100 * (closes[i] - ll[i]) / span
	}

	d = nanSlice(len(closes))
	if len(closes) < p-1+dp {
		return k, d
	}
	dd := SMA(k[p-1:], dp)
	for i := p - 1; i < len(closes); i++ {
		if valid(dd[i-(p-1)]) {
			d[i] = dd[i-(p-1)]
		}
	}
	return k, d
}

// ROC is the rate of change in percent over p.
func ROC(closes []float64, p int) []float64 {
	out := nanSlice(len(closes))
	for i := p; i < len(closes); i++ {
		if closes[i-p] != 0 {
			out[i] = (closes[i]/closes[i-p] - 1) * 100
		}
	}
	return out
}

// CCI is the commodity channel index over p with the usual 0.015 constant.
func CCI(highs, lows, closes []float64, p int) []float64 {
	out := nanSlice(len(closes))
	tp := typicalPrices(highs, lows, closes)
	sma := SMA(tp, p)
	for i := p - 1; i < len(tp); i++ {
		var dev float64
		for j := i - p + 1; j <= i; j++ {
			dev += math.Abs(tp[j] - sma[i])
		}
		dev /= float64(p)
		if dev == 0 {
			out[i] = 0
			continue
		}
		out[i] = (tp[i] - sma[i]) / (0.015 * dev)
	}
	return out
}

// WilliamsR is the Williams %R oscillator over p, in [-100, 0].
func WilliamsR(highs, lows, closes []float64, p int) []float64 {
	out := nanSlice(len(closes))
	hh := highest(highs, p)
	ll := lowest(lows, p)
	for i := p - 1; i < len(closes); i++ {
		span := hh[i] - ll[i]
		if span == 0 {
			out[i] = -50
			continue
		}
		out[i] = -100 * (hh[i] - closes[i]) / span
	}
	return out
}

func typicalPrices(highs, lows, closes []float64) []float64 {
	tp := make([]float64, len(closes))
	for i := range tp {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	return tp
}

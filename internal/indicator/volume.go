package indicator

// CMF is the Chaikin money flow over p.
func CMF(highs, lows, closes, volumes []float64, p int) []float64 {
	out := nanSlice(len(closes))
	mfv := make([]float64, len(closes))
	for i := range closes {
		span := highs[i] - lows[i]
		if span == 0 {
			continue
		}
		mult := ((closes[i] - lows[i]) - (highs[i] - closes[i])) / span
		mfv[i] = mult * volumes[i]
	}

	var sumMFV, sumVol float64
	for i := range closes {
		sumMFV += mfv[i]
		sumVol += volumes[i]
		if i >= p {
			sumMFV -= mfv[i-p]
			sumVol -= volumes[i-p]
		}
		if i >= p-1 && sumVol > 0 {
			out[i] = sumMFV / sumVol
		}
	}
	return out
}

// MFI is the money flow index over p.
func MFI(highs, lows, closes, volumes []float64, p int) []float64 {
	out := nanSlice(len(closes))
	tp := typicalPrices(highs, lows, closes)

	pos := make([]float64, len(closes))
	neg := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		flow := tp[i] * volumes[i]
		switch {
		case tp[i] > tp[i-1]:
			pos[i] = flow
		case tp[i] < tp[i-1]:
			neg[i] = flow
		}
	}

	var sumPos, sumNeg float64
	for i := 1; i < len(closes); i++ {
		sumPos += pos[i]
		sumNeg += neg[i]
		if i > p {
			sumPos -= pos[i-p]
			sumNeg -= neg[i-p]
		}
		if i >= p {
			if sumNeg == 0 {
				out[i] = 100
				continue
			}
			ratio := sumPos / sumNeg
			out[i] = 100 - 100/(1+ratio)
		}
	}
	return out
}

// VolumeRatio divides each volume by its SMA over p.
func VolumeRatio(volumes []float64, p int) []float64 {
	out := nanSlice(len(volumes))
	sma := SMA(volumes, p)
	for i := range volumes {
		if valid(sma[i]) && sma[i] > 0 {
			out[i] = volumes[i] / sma[i]
		}
	}
	return out
}

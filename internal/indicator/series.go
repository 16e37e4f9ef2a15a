// Package indicator computes the technical indicator set the scorer consumes.
// All series functions are aligned to the input length with NaN for warm-up
// positions, so downstream code can treat "not yet computable" uniformly.
package indicator

import "math"

// SMA over the last p points.
func SMA(x []float64, p int) []float64 {
	out := nanSlice(len(x))
	if p <= 0 {
		return out
	}
	var sum float64
	for i := range x {
		sum += x[i]
		if i >= p {
			sum -= x[i-p]
		}
		if i >= p-1 {
			out[i] = sum / float64(p)
		}
	}
	return out
}

// EMA with smoothing 2/(p+1), seeded with the SMA of the first p points.
func EMA(x []float64, p int) []float64 {
	out := nanSlice(len(x))
	if p <= 0 || len(x) < p {
		return out
	}
	k := 2.0 / float64(p+1)
	var seed float64
	for i := 0; i < p; i++ {
		seed += x[i]
	}
	out[p-1] = seed / float64(p)
	for i := p; i < len(x); i++ {
		out[i] = (x[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// MeanStd returns the rolling mean and population standard deviation over p.
func MeanStd(x []float64, p int) (mean, std []float64) {
	mean = nanSlice(len(x))
	std = nanSlice(len(x))
	if p <= 0 {
		return mean, std
	}
	var sum, sum2 float64
	for i := range x {
		sum += x[i]
		sum2 += x[i] * x[i]
		if i >= p {
			sum -= x[i-p]
			sum2 -= x[i-p] * x[i-p]
		}
		if i >= p-1 {
			m := sum / float64(p)
			v := sum2/float64(p) - m*m
			if v < 0 {
				v = 0
			}
			mean[i] = m
			std[i] = math.Sqrt(v)
		}
	}
	return mean, std
}

// wilder applies Wilder's smoothing to x starting with an SMA seed over p.
func wilder(x []float64, p int) []float64 {
	out := nanSlice(len(x))
	if p <= 0 || len(x) < p {
		return out
	}
	var seed float64
	for i := 0; i < p; i++ {
		seed += x[i]
	}
	out[p-1] = seed / float64(p)
	for i := p; i < len(x); i++ {
		out[i] = (out[i-1]*float64(p-1) + x[i]) / float64(p)
	}
	return out
}

// highest and lowest return rolling extremes over p.
func highest(x []float64, p int) []float64 {
	out := nanSlice(len(x))
	for i := p - 1; i < len(x); i++ {
		hi := x[i]
		for j := i - p + 1; j < i; j++ {
			if x[j] > hi {
				hi = x[j]
			}
		}
		out[i] = hi
	}
	return out
}

func lowest(x []float64, p int) []float64 {
	out := nanSlice(len(x))
	for i := p - 1; i < len(x); i++ {
		lo := x[i]
		for j := i - p + 1; j < i; j++ {
			if x[j] < lo {
				lo = x[j]
			}
		}
		out[i] = lo
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package indicator

import "math"

func firstDefined(src []float64) int {
	for i, v := range src {
		if !IsUndefined(v) {
			return i
		}
	}
	return len(src)
}

// sma is a simple moving average; a window containing an undefined value yields undefined.
func sma(src []float64, length int) []float64 {
	out := undefinedSeries(len(src))
	if length <= 0 {
		return out
	}
	var sum float64
	valid := 0
	for i, v := range src {
		if IsUndefined(v) {
			valid = 0
			sum = 0
			continue
		}
		sum += v
		valid++
		if valid > length {
			sum -= src[i-length]
			valid = length
		}
		if valid == length {
			out[i] = sum / float64(length)
		}
	}
	return out
}

// ema seeds with the SMA of the first length defined values, then applies alpha = 2/(length+1).
func ema(src []float64, length int) []float64 {
	return smooth(src, length, 2/float64(length+1))
}

// rma is Wilder's smoothing, alpha = 1/length, seeded with an SMA.
func rma(src []float64, length int) []float64 {
	return smooth(src, length, 1/float64(length))
}

func smooth(src []float64, length int, alpha float64) []float64 {
	out := undefinedSeries(len(src))
	if length <= 0 {
		return out
	}
	start := firstDefined(src)
	seedEnd := start + length - 1
	if seedEnd >= len(src) {
		return out
	}
	var sum float64
	for i := start; i <= seedEnd; i++ {
		if IsUndefined(src[i]) {
			return out
		}
		sum += src[i]
	}
	prev := sum / float64(length)
	out[seedEnd] = prev
	for i := seedEnd + 1; i < len(src); i++ {
		if IsUndefined(src[i]) {
			out[i] = prev
			continue
		}
		prev = alpha*src[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// wma is a linearly weighted moving average with weights 1..length.
func wma(src []float64, length int) []float64 {
	out := undefinedSeries(len(src))
	if length <= 0 {
		return out
	}
	denom := float64(length*(length+1)) / 2
	for i := length - 1; i < len(src); i++ {
		var acc float64
		ok := true
		for j := 0; j < length; j++ {
			v := src[i-length+1+j]
			if IsUndefined(v) {
				ok = false
				break
			}
			acc += v * float64(j+1)
		}
		if ok {
			out[i] = acc / denom
		}
	}
	return out
}

func diff(src []float64) []float64 {
	out := undefinedSeries(len(src))
	for i := 1; i < len(src); i++ {
		if IsUndefined(src[i]) || IsUndefined(src[i-1]) {
			continue
		}
		out[i] = src[i] - src[i-1]
	}
	return out
}

func absSeries(src []float64) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = math.Abs(v)
	}
	return out
}

func trueRange(high, low, closes []float64) []float64 {
	out := undefinedSeries(len(closes))
	for i := 1; i < len(closes); i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - closes[i-1])
		lc := math.Abs(low[i] - closes[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

func atr(high, low, closes []float64, length int) []float64 {
	return rma(trueRange(high, low, closes), length)
}

func rsi(closes []float64, length int) []float64 {
	n := len(closes)
	out := undefinedSeries(n)
	delta := diff(closes)
	gains := undefinedSeries(n)
	losses := undefinedSeries(n)
	for i, d := range delta {
		if IsUndefined(d) {
			continue
		}
		gains[i] = math.Max(d, 0)
		losses[i] = math.Max(-d, 0)
	}
	avgGain := rma(gains, length)
	avgLoss := rma(losses, length)
	for i := range out {
		g, l := avgGain[i], avgLoss[i]
		if IsUndefined(g) || IsUndefined(l) {
			continue
		}
		if l == 0 {
			if g == 0 {
				out[i] = 50
			} else {
				out[i] = 100
			}
			continue
		}
		out[i] = 100 - 100/(1+g/l)
	}
	return out
}

// crossAbove marks positions where src moves from <= level to > level.
func crossAbove(src []float64, level float64) []float64 {
	out := undefinedSeries(len(src))
	for i := 1; i < len(src); i++ {
		if IsUndefined(src[i]) || IsUndefined(src[i-1]) {
			continue
		}
		out[i] = boolValue(src[i] > level && src[i-1] <= level)
	}
	return out
}

// crossBelow marks positions where src moves from >= level to < level.
func crossBelow(src []float64, level float64) []float64 {
	out := undefinedSeries(len(src))
	for i := 1; i < len(src); i++ {
		if IsUndefined(src[i]) || IsUndefined(src[i-1]) {
			continue
		}
		out[i] = boolValue(src[i] < level && src[i-1] >= level)
	}
	return out
}

// compare maps a pointwise predicate over two series, undefined where either input is.
func compare(a, b []float64, pred func(x, y float64) bool) []float64 {
	out := undefinedSeries(len(a))
	for i := range a {
		if IsUndefined(a[i]) || IsUndefined(b[i]) {
			continue
		}
		out[i] = boolValue(pred(a[i], b[i]))
	}
	return out
}

func threshold(src []float64, pred func(x float64) bool) []float64 {
	out := undefinedSeries(len(src))
	for i, v := range src {
		if IsUndefined(v) {
			continue
		}
		out[i] = boolValue(pred(v))
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package indicator

import "math"

// ADX is the Average Directional Index with directional indicators and trend-strength flags.
type ADX struct {
	period    int
	threshold float64
}

// NewADX builds an ADX from params period (14) and threshold (25).
func NewADX(p Params) (Indicator, error) {
	period, err := p.Int("period", 14)
	if err != nil {
		return nil, err
	}
	if err := positive("period", period); err != nil {
		return nil, err
	}
	th, err := p.Float("threshold", 25)
	if err != nil {
		return nil, err
	}
	return &ADX{period: period, threshold: th}, nil
}

// OutputColumns lists the ADX columns.
func (a *ADX) OutputColumns() []string {
	return []string{"ADX", "DI_plus", "DI_minus", "ADX_strong", "ADX_trending", "ADX_trending_down", "ADX_rising"}
}

// Compute derives Wilder's ADX.
func (a *ADX) Compute(in *Frame) (Columns, error) {
	high, _ := in.Column(ColHigh)
	low, _ := in.Column(ColLow)
	closes, _ := in.Column(ColClose)
	n := len(closes)

	plusDM := undefinedSeries(n)
	minusDM := undefinedSeries(n)
	for i := 1; i < n; i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		plusDM[i], minusDM[i] = 0, 0
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}
	tr := atr(high, low, closes, a.period)
	smPlus := rma(plusDM, a.period)
	smMinus := rma(minusDM, a.period)

	diPlus := undefinedSeries(n)
	diMinus := undefinedSeries(n)
	dx := undefinedSeries(n)
	for i := 0; i < n; i++ {
		if IsUndefined(tr[i]) || IsUndefined(smPlus[i]) || IsUndefined(smMinus[i]) || tr[i] == 0 {
			continue
		}
		diPlus[i] = 100 * smPlus[i] / tr[i]
		diMinus[i] = 100 * smMinus[i] / tr[i]
		sum := diPlus[i] + diMinus[i]
		if sum == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(diPlus[i]-diMinus[i]) / sum
	}
	adx := rma(dx, a.period)

	strong := threshold(adx, func(v float64) bool { return v > a.threshold })
	trending := undefinedSeries(n)
	trendingDown := undefinedSeries(n)
	rising := undefinedSeries(n)
	for i := 0; i < n; i++ {
		if IsUndefined(adx[i]) {
			continue
		}
		trending[i] = boolValue(adx[i] > a.threshold && diPlus[i] > diMinus[i])
		trendingDown[i] = boolValue(adx[i] > a.threshold && diMinus[i] > diPlus[i])
		if i > 0 && !IsUndefined(adx[i-1]) {
			rising[i] = boolValue(adx[i] > adx[i-1])
		}
	}
	return Columns{
		"ADX":               adx,
		"DI_plus":           diPlus,
		"DI_minus":          diMinus,
		"ADX_strong":        strong,
		"ADX_trending":      trending,
		"ADX_trending_down": trendingDown,
		"ADX_rising":        rising,
	}, nil
}

// Normalizer signs trend strength by the dominant directional indicator.
func (a *ADX) Normalizer(column string) (NormalizeFunc, bool) {
	switch column {
	case "ADX":
		return func(row map[string]float64) float64 {
			adx, plus, minus := row["ADX"], row["DI_plus"], row["DI_minus"]
			if IsUndefined(adx) || IsUndefined(plus) || IsUndefined(minus) {
				return Undefined
			}
			sign := 0.0
			if plus > minus {
				sign = 1
			} else if minus > plus {
				sign = -1
			}
			return sign * clamp(adx/100, 0, 1)
		}, true
	case "ADX_trending":
		return signedFlag(column, 1), true
	case "ADX_trending_down":
		return signedFlag(column, -1), true
	}
	return nil, false
}

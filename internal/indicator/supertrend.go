package indicator

// SuperTrend tracks ATR bands around the bar midpoint and flips trend when close breaks them.
type SuperTrend struct {
	atrPeriod  int
	multiplier float64
}

// NewSuperTrend builds a SuperTrend from params atr_period (10) and multiplier (3.0).
func NewSuperTrend(p Params) (Indicator, error) {
	period, err := p.Int("atr_period", 10)
	if err != nil {
		return nil, err
	}
	if err := positive("atr_period", period); err != nil {
		return nil, err
	}
	mult, err := p.Float("multiplier", 3.0)
	if err != nil {
		return nil, err
	}
	return &SuperTrend{atrPeriod: period, multiplier: mult}, nil
}

// OutputColumns lists the SuperTrend columns.
func (s *SuperTrend) OutputColumns() []string {
	return []string{"ST_trend", "ST_upper", "ST_lower", "ST_signal", "ST_direction", "ST_flip_up", "ST_flip_down"}
}

// Compute walks the band recursion starting at the first defined ATR value.
func (s *SuperTrend) Compute(in *Frame) (Columns, error) {
	high, _ := in.Column(ColHigh)
	low, _ := in.Column(ColLow)
	closes, _ := in.Column(ColClose)
	n := len(closes)
	rng := atr(high, low, closes, s.atrPeriod)

	trend := undefinedSeries(n)
	upper := undefinedSeries(n)
	lower := undefinedSeries(n)
	line := undefinedSeries(n)
	flipUp := undefinedSeries(n)
	flipDown := undefinedSeries(n)

	start := firstDefined(rng)
	for i := start; i < n; i++ {
		mid := (high[i] + low[i]) / 2
		basicUpper := mid + s.multiplier*rng[i]
		basicLower := mid - s.multiplier*rng[i]
		if i == start {
			upper[i], lower[i] = basicUpper, basicLower
			trend[i] = 1
			line[i] = lower[i]
			continue
		}
		if basicUpper < upper[i-1] || closes[i-1] > upper[i-1] {
			upper[i] = basicUpper
		} else {
			upper[i] = upper[i-1]
		}
		if basicLower > lower[i-1] || closes[i-1] < lower[i-1] {
			lower[i] = basicLower
		} else {
			lower[i] = lower[i-1]
		}
		if trend[i-1] == 1 {
			if closes[i] <= lower[i] {
				trend[i] = -1
			} else {
				trend[i] = 1
			}
		} else {
			if closes[i] >= upper[i] {
				trend[i] = 1
			} else {
				trend[i] = -1
			}
		}
		if trend[i] == 1 {
			line[i] = lower[i]
		} else {
			line[i] = upper[i]
		}
		flipUp[i] = boolValue(trend[i] == 1 && trend[i-1] == -1)
		flipDown[i] = boolValue(trend[i] == -1 && trend[i-1] == 1)
	}

	direction := make([]float64, n)
	copy(direction, trend)
	return Columns{
		"ST_trend":     trend,
		"ST_upper":     upper,
		"ST_lower":     lower,
		"ST_signal":    line,
		"ST_direction": direction,
		"ST_flip_up":   flipUp,
		"ST_flip_down": flipDown,
	}, nil
}

// Normalizer uses the trend direction as-is.
func (s *SuperTrend) Normalizer(column string) (NormalizeFunc, bool) {
	switch column {
	case "ST_trend", "ST_direction":
		return func(row map[string]float64) float64 {
			v := row[column]
			if IsUndefined(v) {
				return Undefined
			}
			return clamp(v, -1, 1)
		}, true
	case "ST_flip_up":
		return signedFlag(column, 1), true
	case "ST_flip_down":
		return signedFlag(column, -1), true
	}
	return nil, false
}

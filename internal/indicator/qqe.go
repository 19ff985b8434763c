package indicator

import "math"

// QQE is the Quantitative Qualitative Estimation: a smoothed RSI with a volatility-banded trailing line.
type QQE struct {
	rsiPeriod, smoothing int
	factor               float64
}

// NewQQE builds a QQE from params rsi_period (14), smoothing (5), qqe_factor (4.236).
func NewQQE(p Params) (Indicator, error) {
	period, err := p.Int("rsi_period", 14)
	if err != nil {
		return nil, err
	}
	smoothing, err := p.Int("smoothing", 5)
	if err != nil {
		return nil, err
	}
	factor, err := p.Float("qqe_factor", 4.236)
	if err != nil {
		return nil, err
	}
	if err := positive("rsi_period", period); err != nil {
		return nil, err
	}
	if err := positive("smoothing", smoothing); err != nil {
		return nil, err
	}
	return &QQE{rsiPeriod: period, smoothing: smoothing, factor: factor}, nil
}

// OutputColumns lists the QQE columns.
func (q *QQE) OutputColumns() []string {
	return []string{"QQE_line", "QQE_signal", "QQE_cross_up", "QQE_cross_down", "QQE_long", "QQE_short"}
}

// Compute derives the smoothed RSI line and its trailing signal line.
func (q *QQE) Compute(in *Frame) (Columns, error) {
	closes, _ := in.Column(ColClose)
	n := len(closes)
	rsiMA := ema(rsi(closes, q.rsiPeriod), q.smoothing)
	dar := ema(absSeries(diff(rsiMA)), 2*q.rsiPeriod-1)

	sig := undefinedSeries(n)
	start := firstDefined(dar)
	trend := 1
	for i := start; i < n; i++ {
		up := rsiMA[i] + dar[i]*q.factor
		down := rsiMA[i] - dar[i]*q.factor
		if i == start {
			sig[i] = down
			continue
		}
		prevUp := rsiMA[i-1] + dar[i-1]*q.factor
		prevDown := rsiMA[i-1] - dar[i-1]*q.factor
		if trend == 1 {
			if rsiMA[i] < prevDown {
				trend = -1
				sig[i] = up
			} else {
				sig[i] = math.Max(down, sig[i-1])
			}
		} else {
			if rsiMA[i] > prevUp {
				trend = 1
				sig[i] = down
			} else {
				sig[i] = math.Min(up, sig[i-1])
			}
		}
	}

	crossUp := undefinedSeries(n)
	crossDown := undefinedSeries(n)
	for i := 1; i < n; i++ {
		if IsUndefined(rsiMA[i]) || IsUndefined(sig[i]) || IsUndefined(rsiMA[i-1]) || IsUndefined(sig[i-1]) {
			continue
		}
		crossUp[i] = boolValue(rsiMA[i] > sig[i] && rsiMA[i-1] <= sig[i-1])
		crossDown[i] = boolValue(rsiMA[i] < sig[i] && rsiMA[i-1] >= sig[i-1])
	}
	line := make([]float64, n)
	copy(line, rsiMA)
	return Columns{
		"QQE_line":       line,
		"QQE_signal":     sig,
		"QQE_cross_up":   crossUp,
		"QQE_cross_down": crossDown,
		"QQE_long":       compare(rsiMA, sig, func(l, s float64) bool { return l > 50 && l > s }),
		"QQE_short":      compare(rsiMA, sig, func(l, s float64) bool { return l < 50 && l < s }),
	}, nil
}

// Normalizer centres the QQE line on 50.
func (q *QQE) Normalizer(column string) (NormalizeFunc, bool) {
	switch column {
	case "QQE_line":
		return func(row map[string]float64) float64 {
			v := row["QQE_line"]
			if IsUndefined(v) {
				return Undefined
			}
			return clamp((v-50)/50, -1, 1)
		}, true
	case "QQE_long", "QQE_cross_up":
		return signedFlag(column, 1), true
	case "QQE_short", "QQE_cross_down":
		return signedFlag(column, -1), true
	}
	return nil, false
}

package indicator

// RSI is the Relative Strength Index with overbought/oversold flags.
type RSI struct {
	period               int
	overbought, oversold float64
}

// NewRSI builds an RSI from params period (14), overbought (70), oversold (30).
func NewRSI(p Params) (Indicator, error) {
	period, err := p.Int("period", 14)
	if err != nil {
		return nil, err
	}
	if err := positive("period", period); err != nil {
		return nil, err
	}
	ob, err := p.Float("overbought", 70)
	if err != nil {
		return nil, err
	}
	os, err := p.Float("oversold", 30)
	if err != nil {
		return nil, err
	}
	return &RSI{period: period, overbought: ob, oversold: os}, nil
}

// OutputColumns lists the RSI columns.
func (r *RSI) OutputColumns() []string {
	return []string{"RSI", "RSI_overbought", "RSI_oversold", "RSI_bullish", "RSI_bearish"}
}

// Compute derives RSI and its regime flags.
func (r *RSI) Compute(in *Frame) (Columns, error) {
	closes, _ := in.Column(ColClose)
	values := rsi(closes, r.period)
	return Columns{
		"RSI":            values,
		"RSI_overbought": threshold(values, func(v float64) bool { return v > r.overbought }),
		"RSI_oversold":   threshold(values, func(v float64) bool { return v < r.oversold }),
		"RSI_bullish":    threshold(values, func(v float64) bool { return v > 50 }),
		"RSI_bearish":    threshold(values, func(v float64) bool { return v < 50 }),
	}, nil
}

// Normalizer centres RSI on 50.
func (r *RSI) Normalizer(column string) (NormalizeFunc, bool) {
	switch column {
	case "RSI":
		return func(row map[string]float64) float64 {
			v := row["RSI"]
			if IsUndefined(v) {
				return Undefined
			}
			return clamp((v-50)/50, -1, 1)
		}, true
	case "RSI_bullish", "RSI_oversold":
		return signedFlag(column, 1), true
	case "RSI_bearish", "RSI_overbought":
		return signedFlag(column, -1), true
	}
	return nil, false
}

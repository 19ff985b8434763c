package indicator

import "math"

// EWO is the Elliott Wave Oscillator, EMA(fast) - EMA(slow).
type EWO struct {
	fast, slow int
}

// NewEWO builds an EWO from params fast (5) and slow (35).
func NewEWO(p Params) (Indicator, error) {
	fast, err := p.Int("fast", 5)
	if err != nil {
		return nil, err
	}
	slow, err := p.Int("slow", 35)
	if err != nil {
		return nil, err
	}
	if err := positive("fast", fast); err != nil {
		return nil, err
	}
	if err := positive("slow", slow); err != nil {
		return nil, err
	}
	return &EWO{fast: fast, slow: slow}, nil
}

// OutputColumns lists the EWO columns.
func (e *EWO) OutputColumns() []string {
	return []string{"EWO", "EWO_crossover", "EWO_crossunder"}
}

// Compute derives the oscillator and its zero-line crosses.
func (e *EWO) Compute(in *Frame) (Columns, error) {
	closes, _ := in.Column(ColClose)
	fast := ema(closes, e.fast)
	slow := ema(closes, e.slow)
	ewo := undefinedSeries(len(closes))
	for i := range ewo {
		if IsUndefined(fast[i]) || IsUndefined(slow[i]) {
			continue
		}
		ewo[i] = fast[i] - slow[i]
	}
	return Columns{
		"EWO":            ewo,
		"EWO_crossover":  crossAbove(ewo, 0),
		"EWO_crossunder": crossBelow(ewo, 0),
	}, nil
}

// Normalizer expresses EWO as a percentage of price squashed through tanh.
func (e *EWO) Normalizer(column string) (NormalizeFunc, bool) {
	switch column {
	case "EWO":
		return func(row map[string]float64) float64 {
			v, px := row["EWO"], row[ColClose]
			if IsUndefined(v) || IsUndefined(px) || px == 0 {
				return Undefined
			}
			return math.Tanh(v / px * 100)
		}, true
	case "EWO_crossover":
		return signedFlag(column, 1), true
	case "EWO_crossunder":
		return signedFlag(column, -1), true
	}
	return nil, false
}

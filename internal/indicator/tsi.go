package indicator

import "math"

// TSI is the True Strength Index: double-smoothed momentum over double-smoothed absolute momentum.
type TSI struct {
	long, short, signal int
}

// NewTSI builds a TSI from params long (25), short (13), signal (13).
func NewTSI(p Params) (Indicator, error) {
	long, err := p.Int("long", 25)
	if err != nil {
		return nil, err
	}
	short, err := p.Int("short", 13)
	if err != nil {
		return nil, err
	}
	sig, err := p.Int("signal", 13)
	if err != nil {
		return nil, err
	}
	for key, v := range map[string]int{"long": long, "short": short, "signal": sig} {
		if err := positive(key, v); err != nil {
			return nil, err
		}
	}
	return &TSI{long: long, short: short, signal: sig}, nil
}

// OutputColumns lists the TSI columns.
func (t *TSI) OutputColumns() []string {
	return []string{"TSI", "TSI_signal", "TSI_crossover", "TSI_crossunder"}
}

// Compute derives TSI, its signal line, and zero-line crosses.
func (t *TSI) Compute(in *Frame) (Columns, error) {
	closes, _ := in.Column(ColClose)
	pc := diff(closes)
	num := ema(ema(pc, t.long), t.short)
	den := ema(ema(absSeries(pc), t.long), t.short)

	tsi := undefinedSeries(len(closes))
	for i := range tsi {
		if IsUndefined(num[i]) || IsUndefined(den[i]) || den[i] == 0 {
			continue
		}
		tsi[i] = 100 * num[i] / den[i]
	}
	return Columns{
		"TSI":            tsi,
		"TSI_signal":     ema(tsi, t.signal),
		"TSI_crossover":  crossAbove(tsi, 0),
		"TSI_crossunder": crossBelow(tsi, 0),
	}, nil
}

// Normalizer scales TSI onto [-1, 1].
func (t *TSI) Normalizer(column string) (NormalizeFunc, bool) {
	switch column {
	case "TSI", "TSI_signal":
		return func(row map[string]float64) float64 {
			v := row[column]
			if IsUndefined(v) {
				return Undefined
			}
			return clamp(v/100, -1, 1)
		}, true
	case "TSI_crossover":
		return signedFlag(column, 1), true
	case "TSI_crossunder":
		return signedFlag(column, -1), true
	}
	return nil, false
}

func signedFlag(column string, sign float64) NormalizeFunc {
	return func(row map[string]float64) float64 {
		v, ok := row[column]
		if !ok || IsUndefined(v) {
			return Undefined
		}
		if v != 0 {
			return sign
		}
		return 0
	}
}

func tanhOf(column string, scale float64) NormalizeFunc {
	return func(row map[string]float64) float64 {
		v, ok := row[column]
		if !ok || IsUndefined(v) {
			return Undefined
		}
		return math.Tanh(v * scale)
	}
}

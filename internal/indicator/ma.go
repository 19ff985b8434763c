package indicator

import "math"

// MA is a simple moving average of close, used by trend filters.
type MA struct {
	length int
}

// NewMA builds an MA from param length (50).
func NewMA(p Params) (Indicator, error) {
	length, err := p.Int("length", 50)
	if err != nil {
		return nil, err
	}
	if err := positive("length", length); err != nil {
		return nil, err
	}
	return &MA{length: length}, nil
}

// OutputColumns lists the MA column.
func (m *MA) OutputColumns() []string { return []string{"MA"} }

// Compute derives the moving average.
func (m *MA) Compute(in *Frame) (Columns, error) {
	closes, _ := in.Column(ColClose)
	return Columns{"MA": sma(closes, m.length)}, nil
}

// Normalizer measures the distance of close from the average.
func (m *MA) Normalizer(column string) (NormalizeFunc, bool) {
	if column != "MA" {
		return nil, false
	}
	return func(row map[string]float64) float64 {
		ma, px := row["MA"], row[ColClose]
		if IsUndefined(ma) || IsUndefined(px) || ma == 0 {
			return Undefined
		}
		return math.Tanh((px - ma) / ma * 10)
	}, true
}

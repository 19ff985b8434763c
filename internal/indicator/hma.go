package indicator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// HMA is the Hull Moving Average with a least-squares slope over the last slope_period points.
type HMA struct {
	period, slopePeriod int
}

// NewHMA builds an HMA from params period (16) and slope_period (3).
func NewHMA(p Params) (Indicator, error) {
	period, err := p.Int("period", 16)
	if err != nil {
		return nil, err
	}
	slopePeriod, err := p.Int("slope_period", 3)
	if err != nil {
		return nil, err
	}
	if period < 2 || slopePeriod < 2 {
		return nil, fmt.Errorf("%w: period and slope_period must be at least 2", ErrInvalidParams)
	}
	return &HMA{period: period, slopePeriod: slopePeriod}, nil
}

// OutputColumns lists the HMA columns.
func (h *HMA) OutputColumns() []string {
	return []string{"HMA", "HMA_slope", "HMA_slope_positive", "HMA_slope_negative", "HMA_slope_pct"}
}

// Compute derives HMA = WMA(2*WMA(n/2) - WMA(n), sqrt(n)) and its slope.
func (h *HMA) Compute(in *Frame) (Columns, error) {
	closes, _ := in.Column(ColClose)
	n := len(closes)
	half := wma(closes, h.period/2)
	full := wma(closes, h.period)
	raw := undefinedSeries(n)
	for i := range raw {
		if IsUndefined(half[i]) || IsUndefined(full[i]) {
			continue
		}
		raw[i] = 2*half[i] - full[i]
	}
	hma := wma(raw, int(math.Sqrt(float64(h.period))))

	slope := undefinedSeries(n)
	xs := make([]float64, h.slopePeriod)
	for i := range xs {
		xs[i] = float64(i)
	}
	for i := h.slopePeriod - 1; i < n; i++ {
		window := hma[i-h.slopePeriod+1 : i+1]
		if hasUndefined(window) {
			continue
		}
		_, beta := stat.LinearRegression(xs, window, nil, false)
		slope[i] = beta
	}

	pct := undefinedSeries(n)
	for i := range pct {
		if IsUndefined(slope[i]) || closes[i] == 0 {
			continue
		}
		pct[i] = slope[i] / closes[i] * 100
	}
	return Columns{
		"HMA":                hma,
		"HMA_slope":          slope,
		"HMA_slope_positive": threshold(slope, func(v float64) bool { return v > 0 }),
		"HMA_slope_negative": threshold(slope, func(v float64) bool { return v < 0 }),
		"HMA_slope_pct":      pct,
	}, nil
}

// Normalizer squashes the percentage slope.
func (h *HMA) Normalizer(column string) (NormalizeFunc, bool) {
	switch column {
	case "HMA_slope", "HMA_slope_pct":
		return tanhOf("HMA_slope_pct", 10), true
	case "HMA_slope_positive":
		return signedFlag(column, 1), true
	case "HMA_slope_negative":
		return signedFlag(column, -1), true
	}
	return nil, false
}

func hasUndefined(values []float64) bool {
	for _, v := range values {
		if IsUndefined(v) {
			return true
		}
	}
	return false
}

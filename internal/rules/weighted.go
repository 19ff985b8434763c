package rules

import (
	"fmt"
	"math"
	"sort"

	"github.com/pj950/ffftttt/internal/indicator"
)

type weightedTerm struct {
	column string
	weight float64
	norm   indicator.NormalizeFunc
}

// Weighted fuses normalized indicator values into one score compared against a threshold.
type Weighted struct {
	terms     []weightedTerm
	threshold float64
}

// NewWeighted builds a formula. Every weighted column needs a normalization function.
func NewWeighted(weights map[string]float64, threshold float64, norms map[string]indicator.NormalizeFunc) (*Weighted, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: weighted fusion requires at least one weight", ErrInvalidRule)
	}
	if threshold < 0 || math.IsNaN(threshold) {
		return nil, fmt.Errorf("%w: weighted threshold must be non-negative, got %v", ErrInvalidRule, threshold)
	}
	columns := make([]string, 0, len(weights))
	for col := range weights {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	w := &Weighted{threshold: threshold}
	for _, col := range columns {
		norm, ok := norms[col]
		if !ok || norm == nil {
			return nil, fmt.Errorf("%w: no normalization for weighted column %s", ErrInvalidRule, col)
		}
		w.terms = append(w.terms, weightedTerm{column: col, weight: weights[col], norm: norm})
	}
	return w, nil
}

// Threshold returns the configured pass threshold.
func (w *Weighted) Threshold() float64 { return w.threshold }

// Score computes Σ weight × normalized(value). Undefined inputs contribute nothing.
func (w *Weighted) Score(row Row) float64 {
	var score float64
	for _, term := range w.terms {
		v := term.norm(row)
		if indicator.IsUndefined(v) {
			continue
		}
		score += term.weight * v
	}
	return score
}

// Decide maps the score onto a side: entries beyond ±threshold, exits beyond ∓threshold/2.
func (w *Weighted) Decide(side Side, row Row) bool {
	score := w.Score(row)
	t := w.threshold
	switch side {
	case LongEntry:
		return score > t
	case ShortEntry:
		return score < -t
	case LongExit:
		return score < -t/2
	case ShortExit:
		return score > t/2
	}
	return false
}

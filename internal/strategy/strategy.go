// Package strategy composes deciders, filters, a confidence formula and a reasoner into one value.
package strategy

import (
	"github.com/pj950/ffftttt/internal/rules"
	"github.com/pj950/ffftttt/internal/signal"
)

// Decision is the outcome of evaluating one row.
type Decision struct {
	LongEntry  bool
	LongExit   bool
	ShortEntry bool
	ShortExit  bool
	Confidence float64
}

// Entries lists the entry sides that fired, LONG before SHORT.
func (d Decision) Entries() []signal.Side {
	var out []signal.Side
	if d.LongEntry {
		out = append(out, signal.Long)
	}
	if d.ShortEntry {
		out = append(out, signal.Short)
	}
	return out
}

// Reasoner renders why side fired on row.
type Reasoner func(side signal.Side, row rules.Row) string

// Strategy is a plain value; custom behaviour is a different value, not a subtype.
type Strategy struct {
	Name          string
	Mode          string
	Sides         map[rules.Side]rules.Decider
	Confidence    rules.Confidence
	Filters       []Filter
	MinConfidence float64
	Reasoner      Reasoner
}

// Evaluate decides every side for row and computes confidence. It keeps no state.
func (s *Strategy) Evaluate(row rules.Row) Decision {
	d := Decision{
		LongEntry:  s.decide(rules.LongEntry, row),
		LongExit:   s.decide(rules.LongExit, row),
		ShortEntry: s.decide(rules.ShortEntry, row),
		ShortExit:  s.decide(rules.ShortExit, row),
	}
	for _, f := range s.Filters {
		if d.LongEntry && !f.Allow(signal.Long, row) {
			d.LongEntry = false
		}
		if d.ShortEntry && !f.Allow(signal.Short, row) {
			d.ShortEntry = false
		}
	}
	d.Confidence = s.Confidence.Score(row)
	return d
}

func (s *Strategy) decide(side rules.Side, row rules.Row) bool {
	dec, ok := s.Sides[side]
	if !ok || dec == nil {
		return false
	}
	return dec.Decide(row)
}

// Reason describes an emitted side.
func (s *Strategy) Reason(side signal.Side, row rules.Row) string {
	if s.Reasoner == nil {
		return fallbackReason
	}
	return s.Reasoner(side, row)
}

package rules

import (
	"math"

	"github.com/pj950/ffftttt/internal/indicator"
)

// Term is one contribution to a confidence score.
//
// A magnitude term contributes min(|value-Center|/Scale, 1) × Weight; a flag term
// contributes Weight when the column is non-zero. Either way the contribution never
// exceeds Weight.
type Term struct {
	Column string  `yaml:"column"`
	Weight float64 `yaml:"weight"`
	Scale  float64 `yaml:"scale"`
	Center float64 `yaml:"center"`
	Flag   bool    `yaml:"flag"`
	// Alt is a second column; a flag term fires when either is non-zero.
	Alt string `yaml:"alt"`
}

func (t Term) contribution(row Row) (float64, bool) {
	v, err := row.Lookup(t.Column)
	alt, altErr := 0.0, ErrUndefinedValue
	if t.Alt != "" {
		alt, altErr = row.Lookup(t.Alt)
	}
	if err != nil && altErr != nil {
		return 0, false
	}
	if err != nil {
		v, alt = alt, 0
	}
	if t.Flag {
		if v != 0 || alt != 0 {
			return t.Weight, true
		}
		return 0, true
	}
	if t.Scale <= 0 {
		return 0, true
	}
	return math.Min(math.Abs(v-t.Center)/t.Scale, 1) * t.Weight, true
}

// Confidence is a weighted combination kept separate from the pass/fail decision.
type Confidence struct {
	Base  float64 `yaml:"base"`
	Terms []Term  `yaml:"terms"`
	// Rescale inflates the term sum by len(Terms)/present when some inputs are undefined.
	Rescale bool `yaml:"rescale"`
}

// Score returns the confidence for row, clamped to [0, 1].
func (c Confidence) Score(row Row) float64 {
	contributions := make([]float64, 0, len(c.Terms))
	for _, term := range c.Terms {
		v, ok := term.contribution(row)
		if !ok {
			continue
		}
		contributions = append(contributions, v)
	}
	present := len(contributions)
	var sum float64
	for _, v := range contributions {
		sum += v
	}
	if c.Rescale && present > 0 && present < len(c.Terms) {
		sum *= float64(len(c.Terms)) / float64(present)
	}
	total := c.Base + sum
	if indicator.IsUndefined(total) {
		return 0
	}
	return math.Max(0, math.Min(total, 1))
}

// FusionConfidence weighs SuperTrend, HMA slope, RSI deviation, ADX strength and QQE alignment.
func FusionConfidence() Confidence {
	return Confidence{
		Terms: []Term{
			{Column: "ST_trend", Weight: 0.25, Flag: true},
			{Column: "HMA_slope", Weight: 0.2, Scale: 0.1},
			{Column: "RSI", Weight: 0.2, Scale: 50, Center: 50},
			{Column: "ADX", Weight: 0.2, Scale: 50},
			{Column: "QQE_long", Alt: "QQE_short", Weight: 0.15, Flag: true},
		},
		Rescale: true,
	}
}

// TSIEWOConfidence is the legacy TSI/EWO formula: 0.3 base plus TSI and EWO magnitude.
func TSIEWOConfidence() Confidence {
	return Confidence{
		Base: 0.3,
		Terms: []Term{
			{Column: "TSI", Weight: 0.4, Scale: 50},
			{Column: "EWO", Weight: 0.3, Scale: 10},
		},
	}
}

package fundamentals

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Reasons reported outside the failure codes.
const (
	ReasonPassed   = "passed"
	ReasonDisabled = "fundamentals_disabled"
)

// neutralPercentile is used when there is nothing to rank against.
const neutralPercentile = 0.5

// Scorer applies the ordered gates and the composite score. It holds no state beyond its config.
type Scorer struct {
	cfg Config
}

// NewScorer validates cfg and returns a scorer.
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Config returns the scorer's configuration.
func (s *Scorer) Config() Config { return s.cfg }

// ScoreAndGate runs liquidity, valuation, size and composite gates in order.
// The first failing gate's code is the reason and later gates are not evaluated.
// peerCaps must hold every market cap of the same market for this pass.
func (s *Scorer) ScoreAndGate(symbol string, m Metrics, market string, peerCaps []float64) Result {
	res := Result{Symbol: symbol, Market: market}
	if !s.cfg.Enabled {
		res.Passed, res.Score, res.Reason = true, 1, ReasonDisabled
		return res
	}
	th := s.cfg.Thresholds.Resolve(market)
	fail := func(reason string) Result {
		res.Reason = reason
		return res
	}

	// Liquidity.
	turnover, err := m.Get(FieldTurnover)
	if err != nil {
		if s.block(err) {
			return fail(missingCode(FieldTurnover))
		}
	} else if turnover < th.LiquidityMin {
		return fail(fmt.Sprintf("liquidity_too_low:%.0f<%s", turnover, num(th.LiquidityMin)))
	}

	// Valuation.
	pe, peErr := m.Get(FieldPE)
	if peErr != nil {
		if s.block(peErr) {
			return fail(missingCode(FieldPE))
		}
	} else {
		if pe <= 0 {
			return fail(fmt.Sprintf("pe_non_positive:%.2f", pe))
		}
		if pe <= th.PEMin || pe > th.PEMax {
			return fail(fmt.Sprintf("pe_out_of_range:%.2f_not_in_(%s,%s]", pe, num(th.PEMin), num(th.PEMax)))
		}
	}
	pb, pbErr := m.Get(FieldPB)
	if pbErr != nil {
		if s.block(pbErr) {
			return fail(missingCode(FieldPB))
		}
	} else if pb > th.PBMax {
		return fail(fmt.Sprintf("pb_too_high:%.2f>%s", pb, num(th.PBMax)))
	}

	// Size.
	sizeKnown := true
	percentile := neutralPercentile
	marketCap, capErr := m.Get(FieldMarketCap)
	if capErr != nil {
		if s.block(capErr) {
			return fail(missingCode(FieldMarketCap))
		}
		sizeKnown = false
	} else if pct, ok := Percentile(marketCap, peerCaps); ok {
		percentile = pct
		if pct < th.CapPercentileMin {
			return fail(fmt.Sprintf("market_cap_percentile_too_low:%.2f<%s", pct, num(th.CapPercentileMin)))
		}
	}

	// Composite.
	w := s.cfg.Scoring.Weights
	var weighted, den float64
	if sizeKnown {
		weighted += w.Size * percentile
		den += w.Size
	}
	if peErr == nil {
		weighted += w.PE * ratioScore(pe, th.PEMax)
		den += w.PE
	}
	if pbErr == nil {
		weighted += w.PB * ratioScore(pb, th.PBMax)
		den += w.PB
	}
	score := neutralPercentile
	if den > 0 {
		score = weighted / den
	}
	res.Score = score
	if score < s.cfg.Scoring.MinScore {
		return fail(fmt.Sprintf("composite_score_too_low:%.2f<%s", score, num(s.cfg.Scoring.MinScore)))
	}
	res.Passed, res.Reason = true, ReasonPassed
	return res
}

func (s *Scorer) block(err error) bool {
	return errors.Is(err, ErrMissingMetric) && s.cfg.OnMissing == PolicyBlock
}

func missingCode(field string) string { return "missing_data:" + field }

// num renders a threshold without exponent or trailing zeros.
func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// ratioScore maps a lower-is-better ratio onto [0,1]: clamp((limit-v)/limit, 0, 1).
func ratioScore(v, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, (limit-v)/limit))
}

// Percentile ranks value within peers using average rank for ties: (avgRank-1)/(n-1).
// value joins the peer set when absent. A single-member set ranks 1. It returns false when
// no defined peers exist.
func Percentile(value float64, peers []float64) (float64, bool) {
	var less, equal, n int
	for _, p := range peers {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			continue
		}
		n++
		switch {
		case p < value:
			less++
		case p == value:
			equal++
		}
	}
	if n == 0 {
		return 0, false
	}
	if equal == 0 {
		equal = 1
		n++
	}
	if n == 1 {
		return 1, true
	}
	avgRank := float64(less) + float64(equal+1)/2
	return (avgRank - 1) / float64(n-1), true
}

// Package fundamentals scores symbols on valuation, liquidity and size and gates signals on the result.
package fundamentals

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMissingMetric marks a required field that the provider did not supply.
var ErrMissingMetric = errors.New("missing metric")

// Field names used in failure codes and provider payloads.
const (
	FieldPE        = "pe"
	FieldPB        = "pb"
	FieldMarketCap = "market_cap"
	FieldTurnover  = "turnover_20d_avg"
	FieldVolume    = "volume"
)

// Metrics is one symbol's raw snapshot. Nil means missing, never zero.
type Metrics struct {
	PE        *float64 `json:"pe" yaml:"pe"`
	PB        *float64 `json:"pb" yaml:"pb"`
	MarketCap *float64 `json:"market_cap" yaml:"market_cap"`
	Turnover  *float64 `json:"turnover_20d_avg" yaml:"turnover_20d_avg"`
	Volume    *float64 `json:"volume" yaml:"volume"`
}

// Float wraps v for a Metrics field. NaN and Inf become missing.
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Get returns a present field or ErrMissingMetric.
func (m Metrics) Get(field string) (float64, error) {
	var p *float64
	switch field {
	case FieldPE:
		p = m.PE
	case FieldPB:
		p = m.PB
	case FieldMarketCap:
		p = m.MarketCap
	case FieldTurnover:
		p = m.Turnover
	case FieldVolume:
		p = m.Volume
	default:
		return 0, fmt.Errorf("unknown metric %q", field)
	}
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, fmt.Errorf("%w: %s", ErrMissingMetric, field)
	}
	return *p, nil
}

// Merge fills fields missing in m from fallback.
func (m Metrics) Merge(fallback Metrics) Metrics {
	pick := func(a, b *float64) *float64 {
		if a != nil {
			return a
		}
		return b
	}
	return Metrics{
		PE:        pick(m.PE, fallback.PE),
		PB:        pick(m.PB, fallback.PB),
		MarketCap: pick(m.MarketCap, fallback.MarketCap),
		Turnover:  pick(m.Turnover, fallback.Turnover),
		Volume:    pick(m.Volume, fallback.Volume),
	}
}

// Complete reports whether the valuation and size fields are all present.
func (m Metrics) Complete() bool {
	return m.PE != nil && m.PB != nil && m.MarketCap != nil
}

// Result is the gate outcome for one symbol.
type Result struct {
	Symbol string  `json:"symbol"`
	Passed bool    `json:"passed"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
	Market string  `json:"market"`
}

// MarketFromSymbol extracts the market prefix: "HK.00700" is HK, "SH.600519" is CN, bare tickers are US.
func MarketFromSymbol(symbol string) string {
	prefix, _, found := strings.Cut(symbol, ".")
	if !found {
		return "US"
	}
	switch p := strings.ToUpper(prefix); p {
	case "SH", "SZ":
		return "CN"
	default:
		return p
	}
}

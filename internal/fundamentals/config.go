package fundamentals

import (
	"fmt"
	"strings"
)

// Policy decides what a missing required metric does to a gate.
type Policy string

const (
	PolicyPass  Policy = "pass"
	PolicyBlock Policy = "block"
)

// Global holds thresholds applied when no market override is present.
type Global struct {
	PEMin            float64 `yaml:"pe_min"`
	PEMax            float64 `yaml:"pe_max"`
	PBMax            float64 `yaml:"pb_max"`
	CapPercentileMin float64 `yaml:"cap_percentile_min"`
}

// MarketOverride replaces individual global thresholds for one market. Nil fields fall back.
type MarketOverride struct {
	LiquidityMin     *float64 `yaml:"liquidity_min,omitempty"`
	PEMin            *float64 `yaml:"pe_min,omitempty"`
	PEMax            *float64 `yaml:"pe_max,omitempty"`
	PBMax            *float64 `yaml:"pb_max,omitempty"`
	CapPercentileMin *float64 `yaml:"cap_percentile_min,omitempty"`
}

// Liquidity configures the turnover floor.
type Liquidity struct {
	Min float64 `yaml:"min"`
}

// Thresholds is the yaml thresholds block.
type Thresholds struct {
	Liquidity Liquidity                 `yaml:"liquidity"`
	Global    Global                    `yaml:"global"`
	Overrides map[string]MarketOverride `yaml:"overrides"`
}

// Weights configures the composite score.
type Weights struct {
	Size float64 `yaml:"size"`
	PE   float64 `yaml:"pe"`
	PB   float64 `yaml:"pb"`
}

// Scoring is the yaml scoring block.
type Scoring struct {
	Weights  Weights `yaml:"weights"`
	MinScore float64 `yaml:"min_score"`
}

// Config is the fundamentals section of the application config.
type Config struct {
	Enabled    bool       `yaml:"enabled"`
	Refresh    string     `yaml:"refresh"`
	CacheDir   string     `yaml:"cache_dir"`
	KeepDays   int        `yaml:"keep_days"`
	Source     string     `yaml:"source"`
	OnMissing  Policy     `yaml:"gate_behavior_on_missing"`
	Thresholds Thresholds `yaml:"thresholds"`
	Scoring    Scoring    `yaml:"scoring"`
}

// DefaultConfig mirrors the shipped defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Refresh:   "daily",
		CacheDir:  "cache",
		KeepDays:  7,
		OnMissing: PolicyPass,
		Thresholds: Thresholds{
			Liquidity: Liquidity{Min: 50_000_000},
			Global:    Global{PEMin: 0, PEMax: 60, PBMax: 10, CapPercentileMin: 0.5},
		},
		Scoring: Scoring{
			Weights:  Weights{Size: 0.4, PE: 0.3, PB: 0.3},
			MinScore: 0.5,
		},
	}
}

// Validate rejects configurations the scorer cannot apply.
func (c Config) Validate() error {
	switch c.OnMissing {
	case PolicyPass, PolicyBlock:
	default:
		return fmt.Errorf("fundamentals: gate_behavior_on_missing must be pass or block, got %q", c.OnMissing)
	}
	w := c.Scoring.Weights
	if w.Size < 0 || w.PE < 0 || w.PB < 0 {
		return fmt.Errorf("fundamentals: scoring weights must be non-negative")
	}
	if w.Size+w.PE+w.PB == 0 {
		return fmt.Errorf("fundamentals: scoring weights sum to zero")
	}
	if c.Scoring.MinScore < 0 || c.Scoring.MinScore > 1 {
		return fmt.Errorf("fundamentals: min_score must be within [0,1], got %g", c.Scoring.MinScore)
	}
	if err := c.Thresholds.Global.check("global"); err != nil {
		return err
	}
	for market := range c.Thresholds.Overrides {
		if market != strings.ToUpper(market) {
			return fmt.Errorf("fundamentals: override market %q must be upper case", market)
		}
		if err := c.Thresholds.Resolve(market).check(market); err != nil {
			return err
		}
	}
	return nil
}

func (g Global) check(scope string) error {
	if g.PEMax <= 0 || g.PBMax <= 0 {
		return fmt.Errorf("fundamentals: %s pe_max and pb_max must be positive", scope)
	}
	if g.PEMin >= g.PEMax {
		return fmt.Errorf("fundamentals: %s pe_min %g must be below pe_max %g", scope, g.PEMin, g.PEMax)
	}
	if g.CapPercentileMin < 0 || g.CapPercentileMin > 1 {
		return fmt.Errorf("fundamentals: %s cap_percentile_min must be within [0,1]", scope)
	}
	return nil
}

// Resolved is the effective threshold set for one market.
type Resolved struct {
	Global
	LiquidityMin float64
}

// Resolve applies the market override field by field over the global thresholds.
func (t Thresholds) Resolve(market string) Resolved {
	r := Resolved{Global: t.Global, LiquidityMin: t.Liquidity.Min}
	o, ok := t.Overrides[strings.ToUpper(market)]
	if !ok {
		return r
	}
	if o.LiquidityMin != nil {
		r.LiquidityMin = *o.LiquidityMin
	}
	if o.PEMin != nil {
		r.PEMin = *o.PEMin
	}
	if o.PEMax != nil {
		r.PEMax = *o.PEMax
	}
	if o.PBMax != nil {
		r.PBMax = *o.PBMax
	}
	if o.CapPercentileMin != nil {
		r.CapPercentileMin = *o.CapPercentileMin
	}
	return r
}

package fundamentals

import (
	"math"
	"strings"
	"testing"
)

func f(v float64) *float64 { return &v }

func newScorer(t *testing.T, mutate func(*Config)) *Scorer {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewScorer(cfg)
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}
	return s
}

func TestCompositeScoreExample(t *testing.T) {
	s := newScorer(t, nil)
	m := Metrics{PE: f(30), PB: f(5), MarketCap: f(3), Turnover: f(1e9)}
	res := s.ScoreAndGate("AAPL", m, "US", []float64{1, 2, 3, 4})
	if !res.Passed || res.Reason != ReasonPassed {
		t.Fatalf("expected pass, got %+v", res)
	}
	want := 0.4*(2.0/3.0) + 0.3*0.5 + 0.3*0.5
	if math.Abs(res.Score-want) > 1e-9 {
		t.Fatalf("score %.4f want %.4f", res.Score, want)
	}
	if math.Abs(res.Score-0.567) > 0.001 {
		t.Fatalf("score %.4f should round to 0.567", res.Score)
	}
}

func TestPBOverrideFailsWithCanonicalCode(t *testing.T) {
	s := newScorer(t, func(c *Config) {
		c.Thresholds.Overrides = map[string]MarketOverride{"US": {PBMax: f(12)}}
	})
	// Cap percentile would also fail; only the first failing gate is reported.
	m := Metrics{PE: f(35), PB: f(60.67), MarketCap: f(1), Turnover: f(1e9)}
	res := s.ScoreAndGate("AAPL", m, "US", []float64{1, 5, 10})
	if res.Passed {
		t.Fatalf("expected failure")
	}
	if res.Reason != "pb_too_high:60.67>12" {
		t.Fatalf("unexpected reason %q", res.Reason)
	}
	if res.Score != 0 {
		t.Fatalf("hard gate failure should score 0, got %v", res.Score)
	}
}

func TestOverridesTakePrecedencePerField(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds.Overrides = map[string]MarketOverride{
		"HK": {PEMax: f(30), CapPercentileMin: f(0.1), LiquidityMin: f(1e6)},
	}
	r := cfg.Thresholds.Resolve("HK")
	if r.PEMax != 30 || r.CapPercentileMin != 0.1 || r.LiquidityMin != 1e6 {
		t.Fatalf("override not applied: %+v", r)
	}
	if r.PBMax != cfg.Thresholds.Global.PBMax || r.PEMin != cfg.Thresholds.Global.PEMin {
		t.Fatalf("absent override fields must fall back: %+v", r)
	}
	if g := cfg.Thresholds.Resolve("US"); g.PEMax != 60 || g.LiquidityMin != 50_000_000 {
		t.Fatalf("market without override should use globals: %+v", g)
	}

	s := newScorer(t, func(c *Config) { *c = cfg })
	res := s.ScoreAndGate("HK.00700", Metrics{PE: f(45), PB: f(2), MarketCap: f(5), Turnover: f(2e6)}, "HK", []float64{5})
	if res.Reason != "pe_out_of_range:45.00_not_in_(0,30]" {
		t.Fatalf("unexpected reason %q", res.Reason)
	}
}

func TestGateOrderAndCodes(t *testing.T) {
	s := newScorer(t, nil)
	cases := []struct {
		name string
		m    Metrics
		caps []float64
		want string
	}{
		{"liquidity first", Metrics{PE: f(-3), Turnover: f(1000)}, nil, "liquidity_too_low:1000<50000000"},
		{"negative pe", Metrics{PE: f(-3), Turnover: f(1e9)}, nil, "pe_non_positive:-3.00"},
		{"pe ceiling", Metrics{PE: f(61), Turnover: f(1e9)}, nil, "pe_out_of_range:61.00_not_in_(0,60]"},
		{"size", Metrics{PE: f(10), PB: f(1), MarketCap: f(1), Turnover: f(1e9)}, []float64{1, 2, 3, 4, 5}, "market_cap_percentile_too_low:0.00<0.5"},
		{"composite", Metrics{PE: f(59), PB: f(9.9), MarketCap: f(3), Turnover: f(1e9)}, []float64{1, 2, 3}, "composite_score_too_low:"},
	}
	for _, tc := range cases {
		res := s.ScoreAndGate("X", tc.m, "US", tc.caps)
		if res.Passed || !strings.HasPrefix(res.Reason, tc.want) {
			t.Fatalf("%s: got %+v want reason %q", tc.name, res, tc.want)
		}
	}
}

func TestMissingDataPolicies(t *testing.T) {
	m := Metrics{PE: f(20), MarketCap: f(10), Turnover: f(1e9)}

	block := newScorer(t, func(c *Config) { c.OnMissing = PolicyBlock })
	if res := block.ScoreAndGate("X", m, "US", []float64{10}); res.Passed || res.Reason != "missing_data:pb" {
		t.Fatalf("block policy: %+v", res)
	}
	if res := block.ScoreAndGate("X", Metrics{}, "US", nil); res.Reason != "missing_data:turnover_20d_avg" {
		t.Fatalf("block policy should report the first gate: %+v", res)
	}

	pass := newScorer(t, nil)
	res := pass.ScoreAndGate("X", m, "US", []float64{10})
	if !res.Passed {
		t.Fatalf("pass policy: %+v", res)
	}
	// size=1 (single peer), pe=(60-20)/60; pb excluded from the denominator.
	want := (0.4*1 + 0.3*(40.0/60.0)) / 0.7
	if math.Abs(res.Score-want) > 1e-9 {
		t.Fatalf("score %v want %v", res.Score, want)
	}
}

func TestDisabledPasses(t *testing.T) {
	s := newScorer(t, func(c *Config) { c.Enabled = false })
	res := s.ScoreAndGate("X", Metrics{PE: f(-1)}, "US", nil)
	if !res.Passed || res.Reason != ReasonDisabled || res.Score != 1 {
		t.Fatalf("unexpected %+v", res)
	}
}

func TestPercentile(t *testing.T) {
	cases := []struct {
		v     float64
		peers []float64
		want  float64
		ok    bool
	}{
		{3, []float64{1, 2, 3, 4}, 2.0 / 3.0, true},
		{2, []float64{1, 2, 2, 4}, 0.5, true},
		{9, []float64{9}, 1, true},
		{5, []float64{1, 2}, 1, true},
		{0, []float64{1, 2}, 0, true},
		{5, nil, 0, false},
		{5, []float64{math.NaN()}, 0, false},
	}
	for _, tc := range cases {
		got, ok := Percentile(tc.v, tc.peers)
		if ok != tc.ok || math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Percentile(%v, %v) = %v,%v want %v,%v", tc.v, tc.peers, got, ok, tc.want, tc.ok)
		}
	}
}

func TestMarketFromSymbol(t *testing.T) {
	cases := map[string]string{"AAPL": "US", "HK.00700": "HK", "us.TSLA": "US", "SH.600519": "CN", "SZ.000001": "CN"}
	for sym, want := range cases {
		if got := MarketFromSymbol(sym); got != want {
			t.Fatalf("%s: got %s want %s", sym, got, want)
		}
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OnMissing = "skip"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected policy error")
	}
	cfg = DefaultConfig()
	cfg.Thresholds.Overrides = map[string]MarketOverride{"US": {PEMin: f(100)}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected pe_min >= pe_max error")
	}
}

package strategy

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pj950/ffftttt/internal/config"
	"github.com/pj950/ffftttt/internal/indicator"
	"github.com/pj950/ffftttt/internal/rules"
	"github.com/pj950/ffftttt/internal/signal"
)

func bullishRow() rules.Row {
	return rules.Row{
		"close": 101, "volume": 5000,
		"ST_trend": 1, "HMA_slope": 0.12, "HMA_slope_pct": 0.12,
		"RSI": 61, "ADX": 30, "ADX_strong": 1, "QQE_long": 1, "QQE_short": 0,
		"ATR_accept": 1, "MA": 100,
	}
}

func TestBuildTSIEWOLegacy(t *testing.T) {
	s, err := Build(config.Strategy{Type: "tsi_ewo", MinConfidence: 0.5, Filters: config.Filters{UseMATrend: true}}, nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	row := rules.Row{"close": 10, "MA": 9, "TSI": 25, "EWO": 5, "TSI_crossover": 1, "TSI_crossunder": 0}
	d := s.Evaluate(row)
	if !d.LongEntry || d.ShortEntry || d.LongExit {
		t.Fatalf("unexpected decision %+v", d)
	}
	if math.Abs(d.Confidence-0.65) > 1e-9 {
		t.Fatalf("confidence %v want 0.65", d.Confidence)
	}
	if got := s.Reason(signal.Long, row); got != "TSI↑0, EWO=5.00>0, P>MA" {
		t.Fatalf("unexpected reason %q", got)
	}
	row["MA"] = 11
	if d := s.Evaluate(row); d.LongEntry {
		t.Fatalf("ma_trend filter should block a long below MA")
	}
}

func TestBuildFusionRuleBased(t *testing.T) {
	cfg := config.Strategy{
		Type:       "fusion",
		FusionMode: "rule_based",
		EntryRules: map[string]config.SideRule{
			"long_entry": {Template: "supertrend_hma"},
			"short_entry": {Rule: map[string]any{
				"type": "and",
				"rules": []any{
					map[string]any{"indicator": "ST_trend", "operator": "==", "value": -1},
				},
			}},
		},
		Filters: config.Filters{UseATRFilter: true, UseADXFilter: true},
	}
	s, err := Build(cfg, nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	row := bullishRow()
	d := s.Evaluate(row)
	if !d.LongEntry || d.ShortEntry || d.LongExit || d.ShortExit {
		t.Fatalf("unexpected decision %+v", d)
	}
	// 0.25 + 0.2 (slope capped) + 0.2*11/50 + 0.2*30/50 + 0.15
	if want := 0.764; math.Abs(d.Confidence-want) > 1e-9 {
		t.Fatalf("confidence %v want %v", d.Confidence, want)
	}
	if got := s.Reason(signal.Long, row); got != "ST↑, HMA↗0.12%, RSI=61, QQE+, ADX=30" {
		t.Fatalf("unexpected reason %q", got)
	}

	row["ATR_accept"] = 0
	if d := s.Evaluate(row); d.LongEntry {
		t.Fatalf("atr filter should block the entry")
	}
	row["ATR_accept"] = math.NaN()
	if d := s.Evaluate(row); d.LongEntry {
		t.Fatalf("undefined filter column should block the entry")
	}
	delete(row, "ATR_accept")
	if d := s.Evaluate(row); !d.LongEntry {
		t.Fatalf("absent filter column should not block")
	}
}

func TestBuildRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.Strategy
		want error
	}{
		{"type", config.Strategy{Type: "obi"}, ErrUnknownMode},
		{"mode", config.Strategy{Type: "fusion", FusionMode: "vote"}, ErrUnknownMode},
		{"template", config.Strategy{Type: "fusion", EntryRules: map[string]config.SideRule{"long_entry": {Template: "nope"}}}, rules.ErrUnknownTemplate},
		{"empty side", config.Strategy{Type: "fusion", EntryRules: map[string]config.SideRule{"long_entry": {}}}, rules.ErrInvalidRule},
	}
	for _, tc := range cases {
		if _, err := Build(tc.cfg, nil, nil); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v want %v", tc.name, err, tc.want)
		}
	}
	if _, err := Build(config.Strategy{Type: "fusion", EntryRules: map[string]config.SideRule{"middle": {Template: "tsi_ewo"}}}, nil, nil); err == nil {
		t.Fatalf("unknown side name should fail")
	}
}

func TestBuildWeighted(t *testing.T) {
	cfg := config.Strategy{
		Type:       "fusion",
		FusionMode: "weighted",
		Weights:    map[string]float64{"ST_trend": 0.5, "RSI": 0.5},
		Threshold:  0.3,
	}
	specs := []indicator.Spec{{Name: "supertrend"}, {Name: "rsi"}}
	s, err := Build(cfg, indicator.Default, specs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if s.Mode != "weighted" || len(s.Sides) != 4 {
		t.Fatalf("unexpected strategy %+v", s)
	}
	if _, err := Build(cfg, nil, specs); err == nil {
		t.Fatalf("weighted without registry should fail")
	}
}

func TestCustomConfidenceOverridesPreset(t *testing.T) {
	cfg := config.Strategy{
		Type:       "tsi_ewo",
		Confidence: &rules.Confidence{Base: 0.9},
	}
	s, err := Build(cfg, nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := s.Evaluate(rules.Row{}).Confidence; got != 0.9 {
		t.Fatalf("custom confidence not applied: %v", got)
	}
}

func TestMinVolumeFilter(t *testing.T) {
	f := BuildFilters(config.Filters{MinVolume: 1000})
	if len(f) != 1 || !strings.HasPrefix(f[0].Name(), "min_volume") {
		t.Fatalf("unexpected filters %v", f)
	}
	if f[0].Allow(signal.Long, rules.Row{"volume": 999}) {
		t.Fatalf("low volume should block")
	}
	if !f[0].Allow(signal.Short, rules.Row{"volume": 1000}) {
		t.Fatalf("volume at the floor should pass")
	}
}

func TestReasonFallbacks(t *testing.T) {
	if got := FusionReason(signal.Short, rules.Row{}); got != fallbackReason {
		t.Fatalf("unexpected %q", got)
	}
	row := rules.Row{"ST_trend": -1, "HMA_slope": -0.2, "HMA_slope_pct": -0.2, "QQE_short": 1}
	if got := FusionReason(signal.Short, row); got != "ST↓, HMA↘-0.20%, QQE-" {
		t.Fatalf("unexpected %q", got)
	}
	var s Strategy
	if s.Reason(signal.Long, nil) != fallbackReason {
		t.Fatalf("missing reasoner should fall back")
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // market timezones must resolve on hosts without zoneinfo

	"github.com/pj950/ffftttt/internal/indicator"
	"github.com/pj950/ffftttt/internal/rules"
	"github.com/pj950/ffftttt/internal/signal"
)

// Validate resolves every name the pipeline will look up so configuration errors abort startup.
func (c *Config) Validate(reg *indicator.Registry) error {
	var errs []error
	if len(c.Watchlist) == 0 {
		errs = append(errs, errors.New("watchlist is empty"))
	}
	if len(c.Timeframes) == 0 {
		errs = append(errs, errors.New("timeframes is empty"))
	}
	for _, tf := range c.Timeframes {
		if _, err := signal.ParseTimeframe(tf); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := signal.ParseTimeframe(c.Feed.BaseTimeframe); err != nil {
		errs = append(errs, fmt.Errorf("feed.base_timeframe: %w", err))
	}
	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("market.timezone: %w", err))
	}
	if err := c.Realtime.MarketHours.validate(); err != nil {
		errs = append(errs, err)
	}
	if reg != nil {
		if err := reg.Validate(c.Indicators.Specs()); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.Strategy.validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Fundamentals.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Realtime.Cooldown.PeriodHours < 0 {
		errs = append(errs, errors.New("realtime.cooldown.period_hours must be non-negative"))
	}
	if c.Realtime.CheckInterval <= 0 {
		errs = append(errs, errors.New("realtime.check_interval must be positive"))
	}
	switch strings.ToLower(c.Feed.Provider) {
	case "stub", "alpaca", "binance":
	default:
		errs = append(errs, fmt.Errorf("feed.provider %q is not one of stub, alpaca, binance", c.Feed.Provider))
	}
	return errors.Join(errs...)
}

func (h MarketHours) validate() error {
	ranges := append([]TimeRange{{Start: h.Start, End: h.End}}, h.ExcludeRanges...)
	for _, r := range ranges {
		for _, v := range []string{r.Start, r.End} {
			if _, err := ParseClock(v); err != nil {
				return fmt.Errorf("realtime.market_hours: %w", err)
			}
		}
	}
	return nil
}

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(v string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", v)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func (s Strategy) validate() error {
	if s.MinConfidence < 0 || s.MinConfidence > 1 {
		return fmt.Errorf("strategy.min_confidence must be within [0,1], got %g", s.MinConfidence)
	}
	switch strings.ToLower(s.Type) {
	case "tsi_ewo":
		return nil
	case "fusion":
	default:
		return fmt.Errorf("strategy.type %q is not fusion or tsi_ewo", s.Type)
	}
	switch strings.ToLower(s.FusionMode) {
	case "rule_based", "":
		for name, sr := range s.sides() {
			if err := sr.validate(name); err != nil {
				return err
			}
		}
	case "weighted":
		if len(s.Weights) == 0 {
			return fmt.Errorf("strategy.weights: %w: weighted fusion requires weights", rules.ErrInvalidRule)
		}
	default:
		return fmt.Errorf("strategy.fusion_mode %q is not rule_based or weighted", s.FusionMode)
	}
	return nil
}

// sides merges entry and exit maps keyed by side name.
func (s Strategy) sides() map[string]SideRule {
	out := make(map[string]SideRule, len(s.EntryRules)+len(s.ExitRules))
	for k, v := range s.EntryRules {
		out[k] = v
	}
	for k, v := range s.ExitRules {
		out[k] = v
	}
	return out
}

// Sides returns the configured rule for each side, keyed by the parsed side.
func (s Strategy) Sides() (map[rules.Side]SideRule, error) {
	out := make(map[rules.Side]SideRule)
	for name, sr := range s.sides() {
		side, err := rules.ParseSide(name)
		if err != nil {
			return nil, fmt.Errorf("strategy: %w", err)
		}
		out[side] = sr
	}
	return out, nil
}

func (r SideRule) validate(side string) error {
	if _, err := rules.ParseSide(side); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	switch {
	case r.Template != "" && r.Rule != nil:
		return fmt.Errorf("strategy.%s: %w: template and rule are mutually exclusive", side, rules.ErrInvalidRule)
	case r.Template != "":
		if _, err := rules.LookupTemplate(r.Template); err != nil {
			return fmt.Errorf("strategy.%s: %w", side, err)
		}
	case r.Rule != nil:
		if _, err := rules.Parse(r.Rule); err != nil {
			return fmt.Errorf("strategy.%s: %w", side, err)
		}
	default:
		return fmt.Errorf("strategy.%s: %w: needs a template or a rule", side, rules.ErrInvalidRule)
	}
	return nil
}

package strategy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pj950/ffftttt/internal/config"
	"github.com/pj950/ffftttt/internal/indicator"
	"github.com/pj950/ffftttt/internal/rules"
)

// ErrUnknownMode reports a strategy type or fusion mode that Build cannot assemble.
var ErrUnknownMode = errors.New("unknown strategy mode")

// Build assembles the configured strategy. The registry and specs are consulted
// only by weighted fusion, to resolve per-column normalizers.
func Build(cfg config.Strategy, reg *indicator.Registry, specs []indicator.Spec) (*Strategy, error) {
	s := &Strategy{
		Filters:       BuildFilters(cfg.Filters),
		MinConfidence: cfg.MinConfidence,
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "tsi_ewo":
		sides, err := templateSides("tsi_ewo")
		if err != nil {
			return nil, err
		}
		s.Name, s.Mode, s.Sides = "tsi_ewo", "template", sides
		s.Confidence = rules.TSIEWOConfidence()
		s.Reasoner = TSIEWOReason(cfg.Filters.UseMATrend)
	case "fusion":
		s.Name = "fusion"
		s.Confidence = rules.FusionConfidence()
		s.Reasoner = FusionReason
		switch strings.ToLower(strings.TrimSpace(cfg.FusionMode)) {
		case "", "rule_based":
			sides, err := ruleSides(cfg)
			if err != nil {
				return nil, err
			}
			s.Mode, s.Sides = "rule_based", sides
		case "weighted":
			sides, err := weightedSides(cfg, reg, specs)
			if err != nil {
				return nil, err
			}
			s.Mode, s.Sides = "weighted", sides
		default:
			return nil, fmt.Errorf("strategy.fusion_mode %q: %w", cfg.FusionMode, ErrUnknownMode)
		}
	default:
		return nil, fmt.Errorf("strategy.type %q: %w", cfg.Type, ErrUnknownMode)
	}
	if cfg.Confidence != nil {
		s.Confidence = *cfg.Confidence
	}
	return s, nil
}

func templateSides(name string) (map[rules.Side]rules.Decider, error) {
	out := make(map[rules.Side]rules.Decider, len(rules.Sides))
	for _, side := range rules.Sides {
		d, err := rules.NewTemplateDecider(name, side)
		if err != nil {
			return nil, err
		}
		out[side] = d
	}
	return out, nil
}

func ruleSides(cfg config.Strategy) (map[rules.Side]rules.Decider, error) {
	configured, err := cfg.Sides()
	if err != nil {
		return nil, err
	}
	out := make(map[rules.Side]rules.Decider, len(configured))
	for side, sr := range configured {
		switch {
		case sr.Template != "" && sr.Rule != nil:
			return nil, fmt.Errorf("strategy.%s: %w: template and rule are mutually exclusive", side, rules.ErrInvalidRule)
		case sr.Template != "":
			d, err := rules.NewTemplateDecider(sr.Template, side)
			if err != nil {
				return nil, fmt.Errorf("strategy.%s: %w", side, err)
			}
			out[side] = d
		case sr.Rule != nil:
			node, err := rules.Parse(sr.Rule)
			if err != nil {
				return nil, fmt.Errorf("strategy.%s: %w", side, err)
			}
			out[side] = rules.TreeDecider{Node: node}
		default:
			return nil, fmt.Errorf("strategy.%s: %w: needs a template or a rule", side, rules.ErrInvalidRule)
		}
	}
	return out, nil
}

func weightedSides(cfg config.Strategy, reg *indicator.Registry, specs []indicator.Spec) (map[rules.Side]rules.Decider, error) {
	if reg == nil {
		return nil, errors.New("weighted fusion needs an indicator registry")
	}
	columns := make([]string, 0, len(cfg.Weights))
	for col := range cfg.Weights {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	norms, err := reg.Normalizers(specs, columns)
	if err != nil {
		return nil, err
	}
	w, err := rules.NewWeighted(cfg.Weights, cfg.Threshold, norms)
	if err != nil {
		return nil, err
	}
	out := make(map[rules.Side]rules.Decider, len(rules.Sides))
	for _, side := range rules.Sides {
		out[side] = rules.WeightedDecider{W: w, Side: side}
	}
	return out, nil
}

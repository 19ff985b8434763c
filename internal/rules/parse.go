package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse converts a decoded configuration tree into an immutable Node.
//
// Accepted shape (YAML or JSON decoded into map[string]any):
//
//	{type: condition, indicator: ST_trend, operator: "==", value: 1}
//	{type: and|or, rules: [...]}
//
// type defaults to condition and operator defaults to "==". Boolean values map to 1/0.
func Parse(raw any) (Node, error) {
	return parseAt(raw, "rule")
}

func parseAt(raw any, path string) (Node, error) {
	m, err := asMap(raw)
	if err != nil {
		return nil, fmt.Errorf("%w at %s: %v", ErrInvalidRule, path, err)
	}
	kind := "condition"
	if t, ok := m["type"]; ok {
		s, ok := t.(string)
		if !ok {
			return nil, fmt.Errorf("%w at %s: type must be a string", ErrInvalidRule, path)
		}
		kind = strings.ToLower(strings.TrimSpace(s))
	}

	switch kind {
	case "and", "or":
		for key := range m {
			if key != "type" && key != "rules" {
				return nil, fmt.Errorf("%w at %s: unexpected key %q in %s node", ErrInvalidRule, path, key, kind)
			}
		}
		var children []Node
		if rawChildren, ok := m["rules"]; ok && rawChildren != nil {
			list, ok := rawChildren.([]any)
			if !ok {
				return nil, fmt.Errorf("%w at %s: rules must be a list", ErrInvalidRule, path)
			}
			for i, item := range list {
				child, err := parseAt(item, fmt.Sprintf("%s.%s[%d]", path, kind, i))
				if err != nil {
					return nil, err
				}
				children = append(children, child)
			}
		}
		if kind == "and" {
			return NewAnd(children...), nil
		}
		return NewOr(children...), nil

	case "condition":
		if _, ok := m["rules"]; ok {
			return nil, fmt.Errorf("%w at %s: condition cannot carry child rules", ErrInvalidRule, path)
		}
		column, ok := m["indicator"].(string)
		if !ok || strings.TrimSpace(column) == "" {
			return nil, fmt.Errorf("%w at %s: condition requires an indicator name", ErrInvalidRule, path)
		}
		op := OpEq
		if rawOp, ok := m["operator"]; ok {
			s, ok := rawOp.(string)
			if !ok {
				return nil, fmt.Errorf("%w at %s: operator must be a string", ErrInvalidRule, path)
			}
			op = Operator(strings.TrimSpace(s))
		}
		rawValue, ok := m["value"]
		if !ok {
			return nil, fmt.Errorf("%w at %s: condition on %s requires a value", ErrInvalidRule, path, column)
		}
		value, err := literal(rawValue)
		if err != nil {
			return nil, fmt.Errorf("%w at %s: %v", ErrInvalidRule, path, err)
		}
		cond, err := NewCondition(column, op, value)
		if err != nil {
			return nil, fmt.Errorf("at %s: %w", path, err)
		}
		return cond, nil

	default:
		return nil, fmt.Errorf("%w at %s: unknown node type %q", ErrInvalidRule, path, kind)
	}
}

func asMap(raw any) (map[string]any, error) {
	switch m := raw.(type) {
	case map[string]any:
		return m, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", k)
			}
			out[key] = v
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("empty node")
	default:
		return nil, fmt.Errorf("node must be a mapping, got %T", raw)
	}
}

func literal(raw any) (float64, error) {
	switch v := raw.(type) {
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value has unsupported type %T", raw)
	}
}

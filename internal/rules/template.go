package rules

import (
	"fmt"
	"sort"
	"strings"
)

// Side names one of the four evaluated decisions.
type Side string

const (
	LongEntry  Side = "long_entry"
	LongExit   Side = "long_exit"
	ShortEntry Side = "short_entry"
	ShortExit  Side = "short_exit"
)

// Sides lists the decisions in evaluation order.
var Sides = []Side{LongEntry, LongExit, ShortEntry, ShortExit}

// ParseSide validates a configured side name.
func ParseSide(s string) (Side, error) {
	side := Side(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Sides {
		if side == known {
			return side, nil
		}
	}
	return "", fmt.Errorf("%w: unknown side %q", ErrInvalidRule, s)
}

// TemplateFunc is a fixed predicate selected by name.
type TemplateFunc func(side Side, row Row) bool

var templates = map[string]TemplateFunc{
	"supertrend_hma": supertrendHMA,
	"supertrend_qqe": supertrendQQE,
	"tsi_ewo":        tsiEWO,
}

// Templates lists the available template names.
func Templates() []string {
	out := make([]string, 0, len(templates))
	for name := range templates {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LookupTemplate resolves a template by name.
func LookupTemplate(name string) (TemplateFunc, error) {
	fn, ok := templates[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrUnknownTemplate, name, strings.Join(Templates(), ", "))
	}
	return fn, nil
}

// ApplyTemplate evaluates the named template for side against row.
func ApplyTemplate(name string, side Side, row Row) (bool, error) {
	fn, err := LookupTemplate(name)
	if err != nil {
		return false, err
	}
	return fn(side, row), nil
}

func is(row Row, column string, pred func(float64) bool) bool {
	v, err := row.Lookup(column)
	if err != nil {
		return false
	}
	return pred(v)
}

func flag(row Row, column string) bool {
	return is(row, column, func(v float64) bool { return v != 0 })
}

func eq(want float64) func(float64) bool  { return func(v float64) bool { return v == want } }
func gt(level float64) func(float64) bool { return func(v float64) bool { return v > level } }
func lt(level float64) func(float64) bool { return func(v float64) bool { return v < level } }

func supertrendHMA(side Side, row Row) bool {
	switch side {
	case LongEntry:
		return is(row, "ST_trend", eq(1)) && is(row, "HMA_slope", gt(0)) && is(row, "RSI", gt(50))
	case LongExit:
		return flag(row, "ST_flip_down") || is(row, "RSI", lt(45))
	case ShortEntry:
		return is(row, "ST_trend", eq(-1)) && is(row, "HMA_slope", lt(0)) && is(row, "RSI", lt(50))
	case ShortExit:
		return flag(row, "ST_flip_up") || is(row, "RSI", gt(55))
	}
	return false
}

func supertrendQQE(side Side, row Row) bool {
	switch side {
	case LongEntry:
		return is(row, "ST_trend", eq(1)) && flag(row, "QQE_long") && flag(row, "ADX_strong")
	case LongExit:
		return flag(row, "ST_flip_down") || flag(row, "QQE_short")
	case ShortEntry:
		return is(row, "ST_trend", eq(-1)) && flag(row, "QQE_short") && flag(row, "ADX_strong")
	case ShortExit:
		return flag(row, "ST_flip_up") || flag(row, "QQE_long")
	}
	return false
}

func tsiEWO(side Side, row Row) bool {
	switch side {
	case LongEntry:
		return flag(row, "TSI_crossover") && is(row, "EWO", gt(0))
	case LongExit:
		return flag(row, "TSI_crossunder") || is(row, "EWO", lt(0))
	case ShortEntry:
		return flag(row, "TSI_crossunder") && is(row, "EWO", lt(0))
	case ShortExit:
		return flag(row, "TSI_crossover") || is(row, "EWO", gt(0))
	}
	return false
}

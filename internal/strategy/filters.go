package strategy

import (
	"fmt"

	"github.com/pj950/ffftttt/internal/config"
	"github.com/pj950/ffftttt/internal/indicator"
	"github.com/pj950/ffftttt/internal/rules"
	"github.com/pj950/ffftttt/internal/signal"
)

// Filter vetoes entries. A filter whose column is absent from the row is not applied;
// a present but undefined value blocks the entry.
type Filter interface {
	Name() string
	Allow(side signal.Side, row rules.Row) bool
}

type flagFilter struct {
	name, column string
}

func (f flagFilter) Name() string { return f.name }

func (f flagFilter) Allow(_ signal.Side, row rules.Row) bool {
	v, present := row[f.column]
	if !present {
		return true
	}
	return !indicator.IsUndefined(v) && v != 0
}

type maTrendFilter struct{}

func (maTrendFilter) Name() string { return "ma_trend" }

func (maTrendFilter) Allow(side signal.Side, row rules.Row) bool {
	ma, present := row["MA"]
	if !present {
		return true
	}
	px, err := row.Lookup(indicator.ColClose)
	if err != nil || indicator.IsUndefined(ma) {
		return false
	}
	if side == signal.Long {
		return px > ma
	}
	return px < ma
}

type minVolumeFilter struct {
	min float64
}

func (f minVolumeFilter) Name() string { return fmt.Sprintf("min_volume(%g)", f.min) }

func (f minVolumeFilter) Allow(_ signal.Side, row rules.Row) bool {
	v, err := row.Lookup(indicator.ColVolume)
	return err == nil && v >= f.min
}

// BuildFilters maps the configured switches onto filters, in a fixed order.
func BuildFilters(cfg config.Filters) []Filter {
	var out []Filter
	if cfg.UseATRFilter {
		out = append(out, flagFilter{name: "atr_filter", column: "ATR_accept"})
	}
	if cfg.UseADXFilter {
		out = append(out, flagFilter{name: "adx_filter", column: "ADX_strong"})
	}
	if cfg.UseMATrend {
		out = append(out, maTrendFilter{})
	}
	if cfg.MinVolume > 0 {
		out = append(out, minVolumeFilter{min: cfg.MinVolume})
	}
	return out
}

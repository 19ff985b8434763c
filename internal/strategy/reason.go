package strategy

import (
	"fmt"
	"strings"

	"github.com/pj950/ffftttt/internal/indicator"
	"github.com/pj950/ffftttt/internal/rules"
	"github.com/pj950/ffftttt/internal/signal"
)

const fallbackReason = "signal_triggered"

func value(row rules.Row, column string) (float64, bool) {
	v, err := row.Lookup(column)
	return v, err == nil
}

func set(row rules.Row, column string) bool {
	v, ok := value(row, column)
	return ok && v != 0
}

// FusionReason renders e.g. "ST↑, HMA↗0.12%, RSI=61, QQE+, ADX=30".
func FusionReason(side signal.Side, row rules.Row) string {
	var parts []string
	dir := 1.0
	st, slopeArrow, qqe, qqeTag := "ST↑", "↗", "QQE_long", "QQE+"
	if side == signal.Short {
		dir = -1
		st, slopeArrow, qqe, qqeTag = "ST↓", "↘", "QQE_short", "QQE-"
	}
	if v, ok := value(row, "ST_trend"); ok && v == dir {
		parts = append(parts, st)
	}
	if v, ok := value(row, "HMA_slope"); ok && v*dir > 0 {
		pct, _ := value(row, "HMA_slope_pct")
		parts = append(parts, fmt.Sprintf("HMA%s%.2f%%", slopeArrow, pct))
	}
	if v, ok := value(row, "RSI"); ok {
		parts = append(parts, fmt.Sprintf("RSI=%.0f", v))
	}
	if set(row, qqe) {
		parts = append(parts, qqeTag)
	}
	if set(row, "ADX_strong") {
		adx, _ := value(row, "ADX")
		parts = append(parts, fmt.Sprintf("ADX=%.0f", adx))
	}
	if len(parts) == 0 {
		return fallbackReason
	}
	return strings.Join(parts, ", ")
}

// TSIEWOReason renders e.g. "TSI↑0, EWO=0.42>0". withMA appends the price/MA relation.
func TSIEWOReason(withMA bool) Reasoner {
	return func(side signal.Side, row rules.Row) string {
		tsi, _ := value(row, "TSI")
		ewo, _ := value(row, "EWO")
		var parts []string
		switch side {
		case signal.Long:
			if set(row, "TSI_crossover") {
				parts = append(parts, "TSI↑0")
			} else {
				parts = append(parts, fmt.Sprintf("TSI=%.1f", tsi))
			}
			parts = append(parts, fmt.Sprintf("EWO=%.2f>0", ewo))
		case signal.Short:
			if set(row, "TSI_crossunder") {
				parts = append(parts, "TSI↓0")
			} else {
				parts = append(parts, fmt.Sprintf("TSI=%.1f", tsi))
			}
			parts = append(parts, fmt.Sprintf("EWO=%.2f<0", ewo))
		default:
			return fallbackReason
		}
		if withMA {
			px, okPx := value(row, indicator.ColClose)
			ma, okMA := value(row, "MA")
			switch {
			case okPx && okMA && side == signal.Long && px > ma:
				parts = append(parts, "P>MA")
			case okPx && okMA && side == signal.Short && px < ma:
				parts = append(parts, "P<MA")
			}
		}
		return strings.Join(parts, ", ")
	}
}

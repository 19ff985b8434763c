// Package pipeline turns indicator rows into emitted signals and drives the polling cycle.
package pipeline

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/pj950/ffftttt/internal/cooldown"
	"github.com/pj950/ffftttt/internal/fundamentals"
	"github.com/pj950/ffftttt/internal/indicator"
	"github.com/pj950/ffftttt/internal/metrics"
	"github.com/pj950/ffftttt/internal/rules"
	"github.com/pj950/ffftttt/internal/signal"
	"github.com/pj950/ffftttt/internal/strategy"
)

// GateFailedPrefix prefixes the reason of every suppressed signal.
const GateFailedPrefix = "fundamentals_gate_failed:"

// Gate answers the fundamentals check for one symbol.
type Gate interface {
	Check(symbol string) fundamentals.Result
}

// OpenGate passes every symbol; it stands in when fundamentals are disabled.
type OpenGate struct{}

// Check always passes.
func (OpenGate) Check(symbol string) fundamentals.Result {
	return fundamentals.Result{Symbol: symbol, Passed: true, Score: 1, Reason: fundamentals.ReasonDisabled}
}

// Input is the latest evaluated row for one (symbol, timeframe).
type Input struct {
	Symbol    string
	Timeframe string
	Ts        time.Time
	Row       rules.Row
}

// LatestInput extracts the last row of a computed frame.
func LatestInput(symbol, timeframe string, frame *indicator.Frame) (Input, bool) {
	if frame == nil || frame.Len() == 0 {
		return Input{}, false
	}
	bars := frame.Bars()
	return Input{
		Symbol:    symbol,
		Timeframe: timeframe,
		Ts:        bars[len(bars)-1].Ts,
		Row:       frame.Last(),
	}, true
}

// Assembler applies the confidence floor, the fundamentals gate and the cooldown to a decision.
type Assembler struct {
	Strategy *strategy.Strategy
	Gate     Gate
	Cooldown *cooldown.Tracker
	Clock    func() time.Time
	Log      zerolog.Logger
}

func (a *Assembler) now() time.Time {
	if a.Clock == nil {
		return time.Now()
	}
	return a.Clock()
}

// Assemble evaluates in and returns the signals to emit, LONG before SHORT.
// A failing gate yields exactly one SUPPRESSED signal and never touches the cooldown.
func (a *Assembler) Assemble(in Input) []signal.Signal {
	metrics.BarsTotal.WithLabelValues(in.Symbol, in.Timeframe).Inc()
	d := a.Strategy.Evaluate(in.Row)
	sides := d.Entries()
	if len(sides) == 0 {
		return nil
	}
	if math.IsNaN(d.Confidence) || d.Confidence < a.Strategy.MinConfidence {
		a.Log.Debug().Str("sym", in.Symbol).Str("tf", in.Timeframe).Float64("conf", d.Confidence).Msg("below min confidence")
		return nil
	}
	price, err := in.Row.Lookup(indicator.ColClose)
	if err != nil {
		a.Log.Debug().Err(err).Str("sym", in.Symbol).Str("tf", in.Timeframe).Msg("close undefined, skipping row")
		return nil
	}

	gate := a.Gate
	if gate == nil {
		gate = OpenGate{}
	}
	if res := gate.Check(in.Symbol); !res.Passed {
		metrics.SuppressedTotal.WithLabelValues(metrics.ReasonCode(res.Reason)).Inc()
		return []signal.Signal{{
			Ts:         in.Ts,
			Symbol:     in.Symbol,
			Timeframe:  in.Timeframe,
			Side:       signal.Suppressed,
			Price:      price,
			Confidence: d.Confidence,
			Reason:     GateFailedPrefix + res.Reason,
		}}
	}

	now := a.now()
	var out []signal.Signal
	for _, side := range sides {
		if a.Cooldown != nil {
			key := cooldown.Key{Symbol: in.Symbol, Timeframe: in.Timeframe, Side: string(side)}
			if !a.Cooldown.TryAcquire(key, now) {
				metrics.CooldownHits.WithLabelValues(in.Symbol, in.Timeframe, string(side)).Inc()
				continue
			}
		}
		metrics.SignalsTotal.WithLabelValues(in.Symbol, in.Timeframe, string(side)).Inc()
		out = append(out, signal.Signal{
			Ts:         in.Ts,
			Symbol:     in.Symbol,
			Timeframe:  in.Timeframe,
			Side:       side,
			Price:      price,
			Confidence: d.Confidence,
			Reason:     a.Strategy.Reason(side, in.Row),
		})
	}
	return out
}

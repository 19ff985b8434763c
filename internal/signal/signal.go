// Package signal standardizes payloads shared between data ingestion, strategy, and notification layers.
package signal

import (
	"encoding/json"
	"time"
)

// Bar models one OHLCV sample for a fixed timeframe.
type Bar struct {
	Ts        time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
	Timeframe string    `json:"tf,omitempty"`
}

// Side enumerates the direction carried by an emitted signal.
type Side string

const (
	// Long indicates a bullish entry.
	Long Side = "LONG"
	// Short indicates a bearish entry.
	Short Side = "SHORT"
	// Suppressed marks a signal whose technical conditions fired but failed the fundamentals gate.
	Suppressed Side = "SUPPRESSED"
)

// Signal expresses a trade-direction alert produced by the pipeline. Never mutated after creation.
type Signal struct {
	Ts         time.Time `json:"timestamp"`
	Symbol     string    `json:"symbol"`
	Timeframe  string    `json:"timeframe"`
	Side       Side      `json:"side"`
	Price      float64   `json:"price"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
}

// TimestampLayout is the wire format used for Signal timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

type wireSignal struct {
	Ts         string  `json:"timestamp"`
	Symbol     string  `json:"symbol"`
	Timeframe  string  `json:"timeframe"`
	Side       Side    `json:"side"`
	Price      float64 `json:"price"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// MarshalJSON renders the signal with exactly the compatibility field set.
func (s Signal) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSignal{
		Ts:         s.Ts.Format(TimestampLayout),
		Symbol:     s.Symbol,
		Timeframe:  s.Timeframe,
		Side:       s.Side,
		Price:      s.Price,
		Confidence: s.Confidence,
		Reason:     s.Reason,
	})
}

// UnmarshalJSON parses the wire layout written by MarshalJSON.
// The layout carries no zone, so the wall clock is read as UTC regardless of the host zone;
// use ParseTimestamp to read it in the market location instead.
func (s *Signal) UnmarshalJSON(data []byte) error {
	var w wireSignal
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ts, err := ParseTimestamp(w.Ts, time.UTC)
	if err != nil {
		return err
	}
	*s = Signal{
		Ts:         ts,
		Symbol:     w.Symbol,
		Timeframe:  w.Timeframe,
		Side:       w.Side,
		Price:      w.Price,
		Confidence: w.Confidence,
		Reason:     w.Reason,
	}
	return nil
}

// Actionable reports whether the signal represents a tradable direction.
func (s Signal) Actionable() bool { return s.Side == Long || s.Side == Short }

// ParseTimestamp reads a TimestampLayout value as a wall clock in loc. A nil loc means UTC.
func ParseTimestamp(v string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(TimestampLayout, v, loc)
}

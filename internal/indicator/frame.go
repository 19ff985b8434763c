package indicator

import (
	"fmt"
	"math"
	"sort"

	"github.com/pj950/ffftttt/internal/signal"
)

// Undefined is the sentinel stored at positions that lack enough history.
var Undefined = math.NaN()

// IsUndefined reports whether v is the undefined sentinel (or otherwise non-finite).
func IsUndefined(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

// Raw bar columns always present in a frame.
const (
	ColOpen   = "open"
	ColHigh   = "high"
	ColLow    = "low"
	ColClose  = "close"
	ColVolume = "volume"
	ColPrice  = "price"
)

// Columns is a partial frame produced by a single indicator.
type Columns map[string][]float64

// Frame maps column names to value sequences index-aligned with a bar series.
type Frame struct {
	bars    []signal.Bar
	columns map[string][]float64
	order   []string
}

// NewFrame seeds a frame with the raw OHLCV columns of bars. The bars slice is copied.
func NewFrame(bars []signal.Bar) *Frame {
	owned := make([]signal.Bar, len(bars))
	copy(owned, bars)
	f := &Frame{bars: owned, columns: make(map[string][]float64)}

	open := make([]float64, len(owned))
	high := make([]float64, len(owned))
	low := make([]float64, len(owned))
	closes := make([]float64, len(owned))
	volume := make([]float64, len(owned))
	for i, b := range owned {
		open[i], high[i], low[i], closes[i], volume[i] = b.Open, b.High, b.Low, b.Close, b.Volume
	}
	f.put(ColOpen, open)
	f.put(ColHigh, high)
	f.put(ColLow, low)
	f.put(ColClose, closes)
	f.put(ColVolume, volume)
	f.put(ColPrice, closes)
	return f
}

// Len returns the number of bars covered by the frame.
func (f *Frame) Len() int { return len(f.bars) }

// Bars returns the bars backing the frame. Callers must not modify the result.
func (f *Frame) Bars() []signal.Bar { return f.bars }

// Column returns the values of a column. Callers must not modify the result.
func (f *Frame) Column(name string) ([]float64, bool) {
	values, ok := f.columns[name]
	return values, ok
}

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.columns[name]
	return ok
}

// Columns lists column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Merge adds or replaces columns. Every column must match the frame length.
func (f *Frame) Merge(cols Columns) error {
	names := make([]string, 0, len(cols))
	for name, values := range cols {
		if len(values) != f.Len() {
			return fmt.Errorf("column %s has length %d, want %d", name, len(values), f.Len())
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f.put(name, cols[name])
	}
	return nil
}

func (f *Frame) put(name string, values []float64) {
	if _, exists := f.columns[name]; !exists {
		f.order = append(f.order, name)
	}
	f.columns[name] = values
}

// Row returns one position's worth of every column.
func (f *Frame) Row(i int) map[string]float64 {
	row := make(map[string]float64, len(f.columns))
	if i < 0 || i >= f.Len() {
		return row
	}
	for name, values := range f.columns {
		row[name] = values[i]
	}
	return row
}

// Last returns the final row, or an empty row for an empty frame.
func (f *Frame) Last() map[string]float64 { return f.Row(f.Len() - 1) }

func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = Undefined
	}
	return out
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

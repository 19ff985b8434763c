package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/pj950/ffftttt/internal/signal"
)

func syntheticBars(n int) []signal.Bar {
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	bars := make([]signal.Bar, n)
	for i := range bars {
		base := 100 + 10*math.Sin(float64(i)/7) + float64(i)*0.05
		bars[i] = signal.Bar{
			Ts:        start.Add(time.Duration(i) * time.Hour),
			Open:      base - 0.3,
			High:      base + 1,
			Low:       base - 1,
			Close:     base,
			Volume:    1000 + float64(i%5)*10,
			Timeframe: "60min",
		}
	}
	return bars
}

func allSpecs() []Spec {
	return []Spec{
		{Name: "tsi"},
		{Name: "ewo"},
		{Name: "ma", Params: Params{"length": 20}},
		{Name: "rsi"},
		{Name: "hma"},
		{Name: "adx"},
		{Name: "supertrend"},
		{Name: "qqe"},
		{Name: "atr_percentile"},
	}
}

func TestCalculateAllAlignsColumns(t *testing.T) {
	bars := syntheticBars(200)
	frame, err := Default.CalculateAll(bars, allSpecs())
	if err != nil {
		t.Fatalf("CalculateAll: %v", err)
	}
	for _, spec := range allSpecs() {
		ind, err := Default.Create(spec.Name, spec.Params)
		if err != nil {
			t.Fatalf("Create %s: %v", spec.Name, err)
		}
		for _, col := range ind.OutputColumns() {
			values, ok := frame.Column(col)
			if !ok {
				t.Fatalf("missing column %s from %s", col, spec.Name)
			}
			if len(values) != len(bars) {
				t.Fatalf("column %s length %d, want %d", col, len(values), len(bars))
			}
			if IsUndefined(values[len(values)-1]) {
				t.Fatalf("column %s undefined at the last bar of a long series", col)
			}
		}
	}
}

func TestShortSeriesYieldsUndefined(t *testing.T) {
	bars := syntheticBars(5)
	for _, spec := range allSpecs() {
		frame, err := Default.CalculateAll(bars, []Spec{spec})
		if err != nil {
			t.Fatalf("CalculateAll %s: %v", spec.Name, err)
		}
		ind, _ := Default.Create(spec.Name, spec.Params)
		for _, col := range ind.OutputColumns() {
			values, _ := frame.Column(col)
			for i, v := range values {
				if !IsUndefined(v) {
					t.Fatalf("%s[%d]=%v, want undefined during warm-up", col, i, v)
				}
			}
		}
	}
}

func TestEmptySeries(t *testing.T) {
	frame, err := Default.CalculateAll(nil, allSpecs())
	if err != nil {
		t.Fatalf("CalculateAll on empty bars: %v", err)
	}
	if frame.Len() != 0 {
		t.Fatalf("expected empty frame")
	}
	if len(frame.Last()) != 0 {
		t.Fatalf("expected empty last row")
	}
}

func TestCalculateAllDeterministicAndNonMutating(t *testing.T) {
	bars := syntheticBars(120)
	snapshot := make([]signal.Bar, len(bars))
	copy(snapshot, bars)

	a, err := Default.CalculateAll(bars, allSpecs())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := Default.CalculateAll(bars, allSpecs())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	for i := range bars {
		if bars[i] != snapshot[i] {
			t.Fatalf("input bar %d mutated", i)
		}
	}
	for _, col := range a.Columns() {
		av, _ := a.Column(col)
		bv, _ := b.Column(col)
		for i := range av {
			if IsUndefined(av[i]) != IsUndefined(bv[i]) || (!IsUndefined(av[i]) && av[i] != bv[i]) {
				t.Fatalf("column %s differs at %d: %v vs %v", col, i, av[i], bv[i])
			}
		}
	}
}

func TestUnknownIndicator(t *testing.T) {
	_, err := Default.CalculateAll(syntheticBars(10), []Spec{{Name: "tsi"}, {Name: "nope"}})
	if !errors.Is(err, ErrUnknownIndicator) {
		t.Fatalf("expected ErrUnknownIndicator, got %v", err)
	}
	if err := Default.Validate([]Spec{{Name: "bogus"}}); !errors.Is(err, ErrUnknownIndicator) {
		t.Fatalf("expected Validate to fail fast, got %v", err)
	}
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("tsi", NewTSI); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := reg.Register("TSI", NewTSI); !errors.Is(err, ErrDuplicateIndicator) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}

func TestInvalidParams(t *testing.T) {
	if _, err := Default.Create("rsi", Params{"period": 0}); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
	if _, err := Default.Create("rsi", Params{"period": "x"}); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams for string, got %v", err)
	}
	if _, err := Default.Create("rsi", Params{"period": 14.0}); err != nil {
		t.Fatalf("float-encoded integer should be accepted: %v", err)
	}
}

type panicky struct{}

func (panicky) Compute(*Frame) (Columns, error) { panic("boom") }
func (panicky) OutputColumns() []string         { return []string{"P1", "P2"} }

type misaligned struct{}

func (misaligned) Compute(*Frame) (Columns, error) { return Columns{"M": {1}}, nil }
func (misaligned) OutputColumns() []string         { return []string{"M"} }

func TestFailingIndicatorBecomesUndefined(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg)
	reg.MustRegister("panicky", func(Params) (Indicator, error) { return panicky{}, nil })
	reg.MustRegister("misaligned", func(Params) (Indicator, error) { return misaligned{}, nil })

	bars := syntheticBars(60)
	frame, err := reg.CalculateAll(bars, []Spec{{Name: "panicky"}, {Name: "misaligned"}, {Name: "rsi"}})
	if err != nil {
		t.Fatalf("CalculateAll should absorb indicator failures: %v", err)
	}
	for _, col := range []string{"P1", "P2", "M"} {
		values, ok := frame.Column(col)
		if !ok || len(values) != len(bars) {
			t.Fatalf("column %s missing or misaligned", col)
		}
		for _, v := range values {
			if !IsUndefined(v) {
				t.Fatalf("column %s should be all undefined", col)
			}
		}
	}
	if rsiValues, _ := frame.Column("RSI"); IsUndefined(rsiValues[len(rsiValues)-1]) {
		t.Fatalf("later indicators should still compute")
	}
}

type doubler struct{}

func (doubler) Compute(in *Frame) (Columns, error) {
	src, ok := in.Column("RSI")
	if !ok {
		return nil, errors.New("RSI missing")
	}
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = v * 2
	}
	return Columns{"RSI2": out}, nil
}
func (doubler) OutputColumns() []string { return []string{"RSI2"} }

func TestLaterIndicatorsReadEarlierColumns(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg)
	reg.MustRegister("rsi2", func(Params) (Indicator, error) { return doubler{}, nil })

	frame, err := reg.CalculateAll(syntheticBars(60), []Spec{{Name: "rsi"}, {Name: "rsi2"}})
	if err != nil {
		t.Fatalf("CalculateAll: %v", err)
	}
	rsiValues, _ := frame.Column("RSI")
	doubled, _ := frame.Column("RSI2")
	last := len(rsiValues) - 1
	if doubled[last] != 2*rsiValues[last] {
		t.Fatalf("expected RSI2 to be derived from RSI, got %v vs %v", doubled[last], rsiValues[last])
	}

	swapped, err := reg.CalculateAll(syntheticBars(60), []Spec{{Name: "rsi2"}, {Name: "rsi"}})
	if err != nil {
		t.Fatalf("CalculateAll swapped: %v", err)
	}
	values, _ := swapped.Column("RSI2")
	if !IsUndefined(values[last]) {
		t.Fatalf("order matters: RSI2 before RSI should be undefined")
	}
}

func TestNormalizersStayInRange(t *testing.T) {
	frame, err := Default.CalculateAll(syntheticBars(200), allSpecs())
	if err != nil {
		t.Fatalf("CalculateAll: %v", err)
	}
	cols := []string{"TSI", "EWO", "MA", "RSI", "HMA_slope", "ADX", "ST_trend", "QQE_line", "ATR_percentile", "volume"}
	norms, err := Default.Normalizers(allSpecs(), cols)
	if err != nil {
		t.Fatalf("Normalizers: %v", err)
	}
	row := frame.Last()
	for _, col := range cols {
		v := norms[col](row)
		if IsUndefined(v) || v < -1 || v > 1 {
			t.Fatalf("normalized %s=%v outside [-1,1]", col, v)
		}
	}
}

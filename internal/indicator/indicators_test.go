package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/pj950/ffftttt/internal/signal"
)

func closesToBars(closes []float64) []signal.Bar {
	bars := make([]signal.Bar, len(closes))
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = signal.Bar{Ts: start.Add(time.Duration(i) * time.Minute), Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 1}
	}
	return bars
}

func TestSMAAndEMA(t *testing.T) {
	src := []float64{1, 2, 3, 4, 5}
	got := sma(src, 3)
	if !IsUndefined(got[0]) || !IsUndefined(got[1]) || got[2] != 2 || got[4] != 4 {
		t.Fatalf("unexpected sma %v", got)
	}
	e := ema(src, 3)
	if e[2] != 2 {
		t.Fatalf("ema seed should equal sma, got %v", e[2])
	}
	if math.Abs(e[3]-3) > 1e-9 {
		t.Fatalf("ema[3]=%v want 3", e[3])
	}
}

func TestRSIExtremes(t *testing.T) {
	up := make([]float64, 40)
	for i := range up {
		up[i] = float64(100 + i)
	}
	values := rsi(up, 14)
	if values[len(values)-1] != 100 {
		t.Fatalf("monotonic rise should give RSI 100, got %v", values[len(values)-1])
	}
	for i := 0; i < 14; i++ {
		if !IsUndefined(values[i]) {
			t.Fatalf("RSI[%d] should be undefined", i)
		}
	}
}

func TestCrossoverColumns(t *testing.T) {
	got := crossAbove([]float64{Undefined, -1, 1, 2, -1}, 0)
	want := []float64{Undefined, Undefined, 1, 0, 0}
	for i := range want {
		if IsUndefined(want[i]) != IsUndefined(got[i]) || (!IsUndefined(want[i]) && want[i] != got[i]) {
			t.Fatalf("crossAbove[%d]=%v want %v", i, got[i], want[i])
		}
	}
	below := crossBelow([]float64{1, -1, -2}, 0)
	if below[1] != 1 || below[2] != 0 {
		t.Fatalf("unexpected crossBelow %v", below)
	}
}

func TestSuperTrendFlipsOnReversal(t *testing.T) {
	closes := make([]float64, 0, 80)
	for i := 0; i < 40; i++ {
		closes = append(closes, 100+float64(i))
	}
	for i := 0; i < 40; i++ {
		closes = append(closes, 140-float64(i)*2)
	}
	frame, err := Default.CalculateAll(closesToBars(closes), []Spec{{Name: "supertrend", Params: Params{"atr_period": 5, "multiplier": 1.5}}})
	if err != nil {
		t.Fatalf("CalculateAll: %v", err)
	}
	trend, _ := frame.Column("ST_trend")
	if trend[35] != 1 {
		t.Fatalf("expected uptrend during the rally, got %v", trend[35])
	}
	if trend[len(trend)-1] != -1 {
		t.Fatalf("expected downtrend after the selloff, got %v", trend[len(trend)-1])
	}
	flips, _ := frame.Column("ST_flip_down")
	count := 0
	for _, v := range flips {
		if v == 1 {
			count++
		}
	}
	if count == 0 {
		t.Fatalf("expected at least one downward flip")
	}
}

func TestTSIPositiveInUptrend(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 50 + float64(i)*0.5 + math.Sin(float64(i))*0.1
	}
	frame, err := Default.CalculateAll(closesToBars(closes), []Spec{{Name: "tsi"}, {Name: "ewo"}})
	if err != nil {
		t.Fatalf("CalculateAll: %v", err)
	}
	row := frame.Last()
	if row["TSI"] <= 0 || row["EWO"] <= 0 {
		t.Fatalf("expected positive TSI/EWO in uptrend, got TSI=%v EWO=%v", row["TSI"], row["EWO"])
	}
}

func TestATRPercentileBounds(t *testing.T) {
	frame, err := Default.CalculateAll(syntheticBars(150), []Spec{{Name: "atr_percentile", Params: Params{"lookback": 50}}})
	if err != nil {
		t.Fatalf("CalculateAll: %v", err)
	}
	values, _ := frame.Column("ATR_percentile")
	for i, v := range values {
		if IsUndefined(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Fatalf("ATR_percentile[%d]=%v outside [0,100]", i, v)
		}
	}
}

package marketdata

import (
	"time"

	"github.com/pj950/ffftttt/internal/signal"
)

// Resample aggregates bars into tf buckets aligned to local midnight in loc.
// Buckets of a day or longer are aligned to calendar days. Input must be sorted.
func Resample(bars []signal.Bar, tf time.Duration, label string, loc *time.Location) []signal.Bar {
	if len(bars) == 0 || tf <= 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	var out []signal.Bar
	var cur signal.Bar
	var curKey time.Time
	for i, b := range bars {
		key := bucket(b.Ts.In(loc), tf)
		if i == 0 || !key.Equal(curKey) {
			if i > 0 {
				out = append(out, cur)
			}
			curKey = key
			cur = signal.Bar{Ts: key, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume, Timeframe: label}
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	return append(out, cur)
}

func bucket(t time.Time, tf time.Duration) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if tf >= 24*time.Hour {
		return midnight
	}
	offset := t.Sub(midnight)
	return midnight.Add(offset - offset%tf)
}

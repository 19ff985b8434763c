package marketdata

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/pj950/ffftttt/internal/signal"
)

// Stub synthesizes a deterministic random walk per symbol.
type Stub struct {
	seed int64
	step time.Duration
	now  func() time.Time
}

// NewStub builds a stub emitting one bar per step.
func NewStub(seed int64, step time.Duration) *Stub {
	if step <= 0 {
		step = time.Minute
	}
	return &Stub{seed: seed, step: step, now: time.Now}
}

// Name identifies the provider.
func (s *Stub) Name() string { return ProviderStub }

// Bars returns closed bars from since up to now. The same (seed, symbol, since) always yields the same walk.
func (s *Stub) Bars(ctx context.Context, symbol string, since time.Time) ([]signal.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(s.seed ^ int64(h.Sum64())))

	start := since.Truncate(s.step)
	end := s.now().Truncate(s.step)
	px := 100.0
	var out []signal.Bar
	for ts := start; ts.Before(end); ts = ts.Add(s.step) {
		// slow sine keeps trends long enough for the indicators to agree
		drift := 0.002 * math.Sin(float64(ts.Unix())/float64(6*time.Hour/time.Second))
		open := px
		px *= 1 + drift + rng.NormFloat64()*0.003
		hi := math.Max(open, px) * (1 + rng.Float64()*0.001)
		lo := math.Min(open, px) * (1 - rng.Float64()*0.001)
		out = append(out, signal.Bar{
			Ts:     ts,
			Open:   open,
			High:   hi,
			Low:    lo,
			Close:  px,
			Volume: math.Round(1000 + rng.Float64()*9000),
		})
	}
	return out, nil
}

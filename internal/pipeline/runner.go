package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/pj950/ffftttt/internal/fundamentals"
	"github.com/pj950/ffftttt/internal/indicator"
	"github.com/pj950/ffftttt/internal/marketdata"
	"github.com/pj950/ffftttt/internal/notify"
	"github.com/pj950/ffftttt/internal/signal"
)

// Runner drives one polling cycle per interval over the watchlist and timeframes.
type Runner struct {
	Registry     *indicator.Registry
	Specs        []indicator.Spec
	Source       marketdata.Source
	Assembler    *Assembler
	Fundamentals *fundamentals.Manager
	Sink         notify.Sink
	Session      *Session
	IgnoreHours  bool
	Watchlist    []string
	Timeframes   []string
	Workers      int
	MinBars      int
	LookbackDays int
	Interval     time.Duration
	Log          zerolog.Logger
	Clock        func() time.Time
}

type job struct {
	symbol, timeframe string
	tf                time.Duration
}

func (r *Runner) now() time.Time {
	if r.Clock == nil {
		return time.Now()
	}
	return r.Clock()
}

// RunOnce evaluates every (symbol, timeframe) pair and returns the signals handed to the sink.
// Per-pair failures are logged and yield no signal; only a failed fundamentals pass aborts the cycle.
func (r *Runner) RunOnce(ctx context.Context) ([]signal.Signal, error) {
	now := r.now()
	if !r.IgnoreHours && r.Session != nil && !r.Session.IsOpen(now) {
		r.Log.Debug().Time("now", now).Msg("market closed, skipping cycle")
		return nil, nil
	}

	asm := *r.Assembler
	if r.Fundamentals != nil && r.Fundamentals.Enabled() {
		snap, err := r.Fundamentals.Snapshot(ctx, r.Watchlist, false)
		if err != nil {
			return nil, err
		}
		asm.Gate = snap
	}

	jobs := make([]job, 0, len(r.Watchlist)*len(r.Timeframes))
	for _, sym := range r.Watchlist {
		for _, tf := range r.Timeframes {
			d, err := signal.ParseTimeframe(tf)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, job{symbol: sym, timeframe: tf, tf: d})
		}
	}

	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	pending := make(chan job)
	var (
		mu      sync.Mutex
		emitted []signal.Signal
		failed  atomic.Int64
		wg      sync.WaitGroup
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := range pending {
				sigs, err := r.evaluate(ctx, &asm, j, now)
				if err != nil {
					failed.Add(1)
					r.Log.Warn().Err(err).Str("sym", j.symbol).Str("tf", j.timeframe).Msg("evaluation failed")
					continue
				}
				for _, s := range sigs {
					if r.Sink != nil {
						if err := r.Sink.Emit(ctx, s); err != nil {
							r.Log.Warn().Err(err).Str("sym", s.Symbol).Msg("signal delivery failed")
						}
					}
					mu.Lock()
					emitted = append(emitted, s)
					mu.Unlock()
				}
			}
		}()
	}
feed:
	for _, j := range jobs {
		select {
		case pending <- j:
		case <-ctx.Done():
			break feed
		}
	}
	close(pending)
	wg.Wait()

	r.Log.Info().Int("pairs", len(jobs)).Int("signals", len(emitted)).Int64("failed", failed.Load()).Msg("cycle complete")
	return emitted, nil
}

var errTooFewBars = errors.New("not enough bars")

func (r *Runner) evaluate(ctx context.Context, asm *Assembler, j job, now time.Time) ([]signal.Signal, error) {
	lookback := r.LookbackDays
	if lookback <= 0 {
		lookback = 30
	}
	bars, err := r.Source.Bars(ctx, j.symbol, now.AddDate(0, 0, -lookback))
	if err != nil {
		return nil, err
	}
	var loc *time.Location
	if r.Session != nil {
		loc = r.Session.Location()
	}
	bars = marketdata.Resample(bars, j.tf, j.timeframe, loc)
	if len(bars) < r.MinBars || len(bars) == 0 {
		r.Log.Debug().Str("sym", j.symbol).Str("tf", j.timeframe).Int("bars", len(bars)).Msg("skipping, not enough bars")
		return nil, nil
	}
	frame, err := r.Registry.CalculateAll(bars, r.Specs)
	if err != nil {
		return nil, err
	}
	in, ok := LatestInput(j.symbol, j.timeframe, frame)
	if !ok {
		return nil, errTooFewBars
	}
	return asm.Assemble(in), nil
}

// Run repeats RunOnce every Interval until ctx is canceled. Cycle errors are logged, not fatal.
func (r *Runner) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := r.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.Log.Error().Err(err).Msg("signal cycle failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

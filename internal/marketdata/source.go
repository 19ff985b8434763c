// Package marketdata hosts bar sources and the resampler that feeds the signal pipeline.
package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pj950/ffftttt/internal/config"
	"github.com/pj950/ffftttt/internal/signal"
)

const (
	// ProviderStub emits deterministic synthetic bars (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderBinance buffers closed klines from Binance public websockets.
	ProviderBinance = "binance"
	// ProviderAlpaca pulls historical bars from the Alpaca data API.
	ProviderAlpaca = "alpaca"
)

// Source returns base-timeframe bars for a symbol, oldest first.
type Source interface {
	Name() string
	Bars(ctx context.Context, symbol string, since time.Time) ([]signal.Bar, error)
}

// Streamer is a Source that must be running to accumulate bars.
type Streamer interface {
	Source
	Run(ctx context.Context) error
}

// New constructs the configured source.
func New(cfg config.Feed, symbols []string, log zerolog.Logger) (Source, error) {
	base, err := signal.ParseTimeframe(cfg.BaseTimeframe)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderStub:
		return NewStub(cfg.Seed, base), nil
	case ProviderBinance:
		opts := []BinanceOption{}
		if cfg.Binance.URL != "" {
			opts = append(opts, WithStreamURL(cfg.Binance.URL))
		}
		return NewBinance(symbols, base, log, opts...)
	case ProviderAlpaca:
		return NewAlpaca(cfg.Alpaca, log), nil
	default:
		return nil, fmt.Errorf("unknown feed provider %q", cfg.Provider)
	}
}

// uniqueSymbols deduplicates and sorts symbols for determinism.
func uniqueSymbols(symbols []string) []string {
	unique := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		unique[sym] = struct{}{}
	}
	out := make([]string, 0, len(unique))
	for sym := range unique {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

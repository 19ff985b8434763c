package marketdata

import (
	"context"
	"fmt"
	"time"

	alpacamd "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rs/zerolog"

	"github.com/pj950/ffftttt/internal/config"
	"github.com/pj950/ffftttt/internal/signal"
)

// barClient is the slice of the Alpaca market data client this package uses.
type barClient interface {
	GetBars(symbol string, req alpacamd.GetBarsRequest) ([]alpacamd.Bar, error)
}

// Alpaca pulls minute and daily bars from the Alpaca data API.
type Alpaca struct {
	client barClient
	feed   alpacamd.Feed
	log    zerolog.Logger
	now    func() time.Time
}

// NewAlpaca builds a source from configured credentials.
func NewAlpaca(cfg config.Alpaca, log zerolog.Logger) *Alpaca {
	client := alpacamd.NewClient(alpacamd.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		BaseURL:   cfg.BaseURL,
	})
	return newAlpaca(client, cfg.Feed, log)
}

func newAlpaca(client barClient, feed string, log zerolog.Logger) *Alpaca {
	return &Alpaca{
		client: client,
		feed:   alpacamd.Feed(feed),
		log:    log.With().Str("provider", ProviderAlpaca).Logger(),
		now:    time.Now,
	}
}

// Name identifies the provider.
func (a *Alpaca) Name() string { return ProviderAlpaca }

// Bars returns one-minute bars from since to now.
func (a *Alpaca) Bars(ctx context.Context, symbol string, since time.Time) ([]signal.Bar, error) {
	return a.fetch(ctx, symbol, alpacamd.OneMin, since)
}

// DailyBars returns the last days daily bars, used for turnover averages.
func (a *Alpaca) DailyBars(ctx context.Context, symbol string, days int) ([]signal.Bar, error) {
	// calendar padding for weekends and holidays
	since := a.now().AddDate(0, 0, -(days*7/5 + 5))
	bars, err := a.fetch(ctx, symbol, alpacamd.OneDay, since)
	if err != nil {
		return nil, err
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

func (a *Alpaca) fetch(ctx context.Context, symbol string, tf alpacamd.TimeFrame, since time.Time) ([]signal.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := a.client.GetBars(symbol, alpacamd.GetBarsRequest{
		TimeFrame: tf,
		Start:     since,
		End:       a.now(),
		Feed:      a.feed,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars %s: %w", symbol, err)
	}
	out := make([]signal.Bar, len(raw))
	for i, bar := range raw {
		out[i] = signal.Bar{
			Ts:     bar.Timestamp,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: float64(bar.Volume),
		}
	}
	a.log.Debug().Str("symbol", symbol).Int("bars", len(out)).Msg("fetched bars")
	return out, nil
}

package fundamentals

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pj950/ffftttt/internal/signal"
)

// Provider fetches one symbol's metrics. Missing fields stay nil.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbol string) (Metrics, error)
}

// FileProvider serves metrics from a static yaml file:
//
//	symbols:
//	  AAPL: {pe: 28.5, pb: 45.1, market_cap: 2.9e12, turnover_20d_avg: 1.2e10}
type FileProvider struct {
	path    string
	metrics map[string]Metrics
}

type fileDoc struct {
	Symbols map[string]Metrics `yaml:"symbols"`
}

// NewFileProvider reads path once.
func NewFileProvider(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Symbols == nil {
		doc.Symbols = map[string]Metrics{}
	}
	return &FileProvider{path: path, metrics: doc.Symbols}, nil
}

func (p *FileProvider) Name() string { return "file:" + p.path }

// Fetch returns the configured metrics, or an empty record for unknown symbols.
func (p *FileProvider) Fetch(_ context.Context, symbol string) (Metrics, error) {
	if m, ok := p.metrics[symbol]; ok {
		return m, nil
	}
	return p.metrics[strings.ToUpper(symbol)], nil
}

// DailyBars is the slice of a market data source a TurnoverProvider needs.
type DailyBars interface {
	DailyBars(ctx context.Context, symbol string, days int) ([]signal.Bar, error)
}

// TurnoverProvider derives turnover_20d_avg and volume from daily bars.
type TurnoverProvider struct {
	Bars DailyBars
	Days int
}

func (p *TurnoverProvider) Name() string { return "turnover" }

// Fetch averages close*volume over the last Days bars.
func (p *TurnoverProvider) Fetch(ctx context.Context, symbol string) (Metrics, error) {
	days := p.Days
	if days <= 0 {
		days = 20
	}
	bars, err := p.Bars.DailyBars(ctx, symbol, days)
	if err != nil {
		return Metrics{}, err
	}
	if len(bars) == 0 {
		return Metrics{}, nil
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	var sum float64
	for _, b := range bars {
		sum += b.Close * b.Volume
	}
	return Metrics{
		Turnover: Float(sum / float64(len(bars))),
		Volume:   Float(bars[len(bars)-1].Volume),
	}, nil
}

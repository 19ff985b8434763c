package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/pj950/ffftttt/internal/metrics"
	"github.com/pj950/ffftttt/internal/signal"
)

const (
	defaultBinanceURL = "wss://stream.binance.com:9443/stream"
	defaultMaxBars    = 5000
)

type binanceEnvelope struct {
	Stream string       `json:"stream"`
	Data   binanceKline `json:"data"`
}

type binanceKline struct {
	Symbol string `json:"s"`
	K      struct {
		Start  int64  `json:"t"`
		Open   string `json:"o"`
		High   string `json:"h"`
		Low    string `json:"l"`
		Close  string `json:"c"`
		Volume string `json:"v"`
		Closed bool   `json:"x"`
	} `json:"k"`
}

// Binance buffers closed klines per symbol from the combined stream endpoint.
type Binance struct {
	symbols  []string
	interval string
	url      string
	maxBars  int
	log      zerolog.Logger

	mu   sync.RWMutex
	bars map[string][]signal.Bar
}

// BinanceOption configures Binance construction parameters.
type BinanceOption func(*Binance)

// WithStreamURL overrides the websocket endpoint (tests point it at httptest).
func WithStreamURL(url string) BinanceOption {
	return func(b *Binance) {
		if url != "" {
			b.url = strings.TrimSuffix(url, "/")
		}
	}
}

// WithMaxBars caps the per-symbol buffer.
func WithMaxBars(n int) BinanceOption {
	return func(b *Binance) {
		if n > 0 {
			b.maxBars = n
		}
	}
}

// NewBinance prepares a kline buffer for symbols at the base interval.
func NewBinance(symbols []string, base time.Duration, log zerolog.Logger, opts ...BinanceOption) (*Binance, error) {
	symbols = uniqueSymbols(symbols)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("binance feed requires at least one symbol")
	}
	interval, err := binanceInterval(base)
	if err != nil {
		return nil, err
	}
	b := &Binance{
		symbols:  symbols,
		interval: interval,
		url:      defaultBinanceURL,
		maxBars:  defaultMaxBars,
		log:      log.With().Str("provider", ProviderBinance).Logger(),
		bars:     make(map[string][]signal.Bar, len(symbols)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func binanceInterval(d time.Duration) (string, error) {
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", d/(24*time.Hour)), nil
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour), nil
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute), nil
	}
	return "", fmt.Errorf("binance has no kline interval for %s", d)
}

// Name identifies the provider.
func (b *Binance) Name() string { return ProviderBinance }

// Bars returns buffered closed klines at or after since.
func (b *Binance) Bars(_ context.Context, symbol string, since time.Time) ([]signal.Bar, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	buf := b.bars[strings.ToUpper(symbol)]
	out := make([]signal.Bar, 0, len(buf))
	for _, bar := range buf {
		if !bar.Ts.Before(since) {
			out = append(out, bar)
		}
	}
	return out, nil
}

// Run consumes the stream until ctx is canceled, reconnecting with backoff.
func (b *Binance) Run(ctx context.Context) error {
	streams := make([]string, len(b.symbols))
	for i, sym := range b.symbols {
		streams[i] = strings.ToLower(sym) + "@kline_" + b.interval
	}
	url := fmt.Sprintf("%s?streams=%s", b.url, strings.Join(streams, "/"))
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := b.consume(ctx, url); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.FeedReconnects.WithLabelValues(ProviderBinance).Inc()
			b.log.Warn().Err(err).Dur("backoff", backoff).Msg("binance feed disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (b *Binance) consume(ctx context.Context, url string) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	b.log.Info().Strs("symbols", b.symbols).Str("interval", b.interval).Msg("connected market data feed")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					b.log.Warn().Err(err).Msg("binance ping failed")
					return
				}
			case <-pingCtx.Done():
				_ = conn.Close()
				return
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		conn.SetReadDeadline(time.Now().Add(90 * time.Second))

		var env binanceEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			b.log.Warn().Err(err).Msg("failed to decode binance message")
			continue
		}
		if !env.Data.K.Closed {
			continue
		}
		bar, err := env.Data.bar()
		if err != nil {
			b.log.Warn().Err(err).Str("stream", env.Stream).Msg("invalid kline from binance")
			continue
		}
		b.append(parseBinanceSymbol(env), bar)
	}
}

func (k binanceKline) bar() (signal.Bar, error) {
	fields := []string{k.K.Open, k.K.High, k.K.Low, k.K.Close, k.K.Volume}
	vals := make([]float64, len(fields))
	for i, raw := range fields {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return signal.Bar{}, err
		}
		vals[i] = v
	}
	return signal.Bar{
		Ts:     time.UnixMilli(k.K.Start),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

func (b *Binance) append(symbol string, bar signal.Bar) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf := b.bars[symbol]
	if n := len(buf); n > 0 && !bar.Ts.After(buf[n-1].Ts) {
		return
	}
	buf = append(buf, bar)
	if len(buf) > b.maxBars {
		buf = append(buf[:0:0], buf[len(buf)-b.maxBars:]...)
	}
	b.bars[symbol] = buf
}

func parseBinanceSymbol(env binanceEnvelope) string {
	if env.Data.Symbol != "" {
		return strings.ToUpper(env.Data.Symbol)
	}
	parts := strings.Split(env.Stream, "@")
	if len(parts) == 0 || parts[0] == "" {
		return strings.ToUpper(env.Stream)
	}
	return strings.ToUpper(parts[0])
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pj950/ffftttt/internal/config"
	"github.com/pj950/ffftttt/internal/signal"
)

const (
	defaultServerChanURL = "https://sctapi.ftqq.com"
	defaultTitle         = "{{.Side}} {{.Symbol}} [{{.Timeframe}}]"
	defaultMessage       = "Signal: {{.Side}}\nSymbol: {{.Symbol}}\nTimeframe: {{.Timeframe}}\nPrice: {{.Price}}\nConfidence: {{.Confidence}}\nReason: {{.Reason}}\nTime: {{.Timestamp}}"
)

// ErrNoSendKey is returned when a push is attempted without a configured key.
var ErrNoSendKey = errors.New("serverchan send key not configured")

// ServerChan pushes actionable signals to WeChat through the ServerChan API.
type ServerChan struct {
	key     string
	baseURL string
	client  *http.Client
	title   *template.Template
	message *template.Template
}

// view is the template data; prices and confidence are pre-rendered with two decimals.
type view struct {
	Side       string
	Symbol     string
	Timeframe  string
	Price      string
	Confidence string
	Reason     string
	Timestamp  string
}

// NewServerChan builds a notifier. Templates accept Go template syntax or the
// "{side} {symbol}" placeholder form.
func NewServerChan(cfg config.ServerChan) (*ServerChan, error) {
	title, err := parseTemplate("title", cfg.TitleTemplate, defaultTitle)
	if err != nil {
		return nil, err
	}
	message, err := parseTemplate("message", cfg.MessageTemplate, defaultMessage)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = defaultServerChanURL
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ServerChan{
		key:     cfg.SendKey,
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
		title:   title,
		message: message,
	}, nil
}

var placeholder = regexp.MustCompile(`\{(\w+)(?::[^}]*)?\}`)

func parseTemplate(name, raw, def string) (*template.Template, error) {
	if strings.TrimSpace(raw) == "" {
		raw = def
	}
	if !strings.Contains(raw, "{{") {
		raw = placeholder.ReplaceAllStringFunc(raw, func(m string) string {
			field := placeholder.FindStringSubmatch(m)[1]
			return "{{." + strings.ToUpper(field[:1]) + field[1:] + "}}"
		})
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("serverchan %s template: %w", name, err)
	}
	return tmpl, nil
}

// Name identifies the sink.
func (s *ServerChan) Name() string { return "serverchan" }

// Emit pushes actionable signals; suppressed ones are skipped.
func (s *ServerChan) Emit(ctx context.Context, sig signal.Signal) error {
	if !sig.Actionable() {
		return nil
	}
	title, message, err := s.Render(sig)
	if err != nil {
		return err
	}
	return s.Send(ctx, title, message)
}

// Render fills the title and message templates for sig.
func (s *ServerChan) Render(sig signal.Signal) (string, string, error) {
	v := view{
		Side:       string(sig.Side),
		Symbol:     sig.Symbol,
		Timeframe:  sig.Timeframe,
		Price:      decimal.NewFromFloat(sig.Price).StringFixed(2),
		Confidence: decimal.NewFromFloat(sig.Confidence).StringFixed(2),
		Reason:     sig.Reason,
		Timestamp:  sig.Ts.Format(signal.TimestampLayout),
	}
	var title, message bytes.Buffer
	if err := s.title.Execute(&title, v); err != nil {
		return "", "", fmt.Errorf("render title: %w", err)
	}
	if err := s.message.Execute(&message, v); err != nil {
		return "", "", fmt.Errorf("render message: %w", err)
	}
	return title.String(), message.String(), nil
}

// Send posts a title and markdown body to {base}/{key}.send and checks the API code.
func (s *ServerChan) Send(ctx context.Context, title, message string) error {
	if s.key == "" {
		return ErrNoSendKey
	}
	form := url.Values{"title": {title}, "desp": {message}}
	endpoint := fmt.Sprintf("%s/%s.send", s.baseURL, url.PathEscape(s.key))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("serverchan: unexpected status %d", resp.StatusCode)
	}
	var payload struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("serverchan: decode response: %w", err)
	}
	if payload.Code != 0 {
		return fmt.Errorf("serverchan: code %d: %s", payload.Code, payload.Message)
	}
	return nil
}

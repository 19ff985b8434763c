package notify

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pj950/ffftttt/internal/config"
	"github.com/pj950/ffftttt/internal/signal"
)

func sample(side signal.Side) signal.Signal {
	return signal.Signal{
		Ts:         time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC),
		Symbol:     "HK.00700",
		Timeframe:  "60min",
		Side:       side,
		Price:      321.456,
		Confidence: 0.7349,
		Reason:     "ST↑, RSI=61",
	}
}

func TestJSONLRecorderWritesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "signals.jsonl")
	rec, err := NewJSONLRecorder(path)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	for _, side := range []signal.Side{signal.Long, signal.Suppressed} {
		if err := rec.Emit(context.Background(), sample(side)); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := rec.Emit(context.Background(), sample(signal.Long)); err == nil {
		t.Fatalf("emit after close should fail")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line not json: %v", err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0]["timestamp"] != "2024-05-06 10:00:00" || lines[1]["side"] != "SUPPRESSED" {
		t.Fatalf("unexpected records %v", lines)
	}
	if len(lines[0]) != 7 {
		t.Fatalf("unexpected field set %v", lines[0])
	}
}

func TestLedgerKeepsNewest(t *testing.T) {
	l := NewLedger(2)
	for _, sym := range []string{"A", "B", "C"} {
		s := sample(signal.Long)
		s.Symbol = sym
		_ = l.Emit(context.Background(), s)
	}
	snap := l.Snapshot()
	if len(snap) != 2 || snap[0].Symbol != "B" || snap[1].Symbol != "C" {
		t.Fatalf("unexpected ledger %v", snap)
	}
	l.Reset()
	if len(l.Snapshot()) != 0 {
		t.Fatalf("reset should clear")
	}
}

func TestServerChanSend(t *testing.T) {
	var gotPath, gotTitle, gotDesp string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = r.ParseForm()
		gotTitle, gotDesp = r.PostForm.Get("title"), r.PostForm.Get("desp")
		_, _ = w.Write([]byte(`{"code":0,"message":""}`))
	}))
	defer server.Close()

	sc, err := NewServerChan(config.ServerChan{SendKey: "SCT123", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new serverchan: %v", err)
	}
	if err := sc.Emit(context.Background(), sample(signal.Long)); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if gotPath != "/SCT123.send" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotTitle != "LONG HK.00700 [60min]" {
		t.Fatalf("unexpected title %q", gotTitle)
	}
	if !strings.Contains(gotDesp, "Price: 321.46") || !strings.Contains(gotDesp, "Confidence: 0.73") || !strings.Contains(gotDesp, "Time: 2024-05-06 10:00:00") {
		t.Fatalf("unexpected body %q", gotDesp)
	}

	gotPath = ""
	if err := sc.Emit(context.Background(), sample(signal.Suppressed)); err != nil || gotPath != "" {
		t.Fatalf("suppressed signals should not be pushed")
	}
}

func TestServerChanErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":40001,"message":"bad key"}`))
	}))
	defer server.Close()

	sc, _ := NewServerChan(config.ServerChan{SendKey: "bad", BaseURL: server.URL})
	if err := sc.Send(context.Background(), "t", "m"); err == nil || !strings.Contains(err.Error(), "40001") {
		t.Fatalf("expected api error, got %v", err)
	}
	nokey, _ := NewServerChan(config.ServerChan{BaseURL: server.URL})
	if err := nokey.Send(context.Background(), "t", "m"); !errors.Is(err, ErrNoSendKey) {
		t.Fatalf("expected ErrNoSendKey, got %v", err)
	}
	if _, err := NewServerChan(config.ServerChan{TitleTemplate: "{{.Side"}); err == nil {
		t.Fatalf("expected template parse error")
	}
}

func TestPlaceholderTemplates(t *testing.T) {
	sc, err := NewServerChan(config.ServerChan{
		TitleTemplate:   "{side} {symbol}",
		MessageTemplate: "{price:.2f} / {confidence:.2f} / {reason}",
	})
	if err != nil {
		t.Fatalf("new serverchan: %v", err)
	}
	title, msg, err := sc.Render(sample(signal.Short))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if title != "SHORT HK.00700" || msg != "321.46 / 0.73 / ST↑, RSI=61" {
		t.Fatalf("unexpected render %q %q", title, msg)
	}
}

type failing struct{}

func (failing) Name() string                              { return "failing" }
func (failing) Emit(context.Context, signal.Signal) error { return errors.New("boom") }

func TestMultiContinuesPastFailures(t *testing.T) {
	var buf bytes.Buffer
	ledger := NewLedger(0)
	m := Multi{failing{}, NewLogSink(zerolog.New(&buf)), ledger}
	if err := m.Emit(context.Background(), sample(signal.Long)); err == nil {
		t.Fatalf("expected joined error")
	}
	if len(ledger.Snapshot()) != 1 {
		t.Fatalf("later sinks must still receive the signal")
	}
	if !strings.Contains(buf.String(), `"sym":"HK.00700"`) {
		t.Fatalf("log sink output missing: %s", buf.String())
	}
}

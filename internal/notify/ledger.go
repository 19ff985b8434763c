package notify

import (
	"context"
	"sync"

	"github.com/pj950/ffftttt/internal/signal"
)

// Ledger stores emitted signals in memory for quick inspection.
type Ledger struct {
	mu      sync.Mutex
	signals []signal.Signal
	limit   int
}

// NewLedger creates an empty ledger keeping at most limit signals (0 keeps all).
func NewLedger(limit int) *Ledger {
	if limit < 0 {
		limit = 0
	}
	return &Ledger{signals: make([]signal.Signal, 0, min(limit, 1024)), limit: limit}
}

// Name identifies the sink.
func (l *Ledger) Name() string { return "ledger" }

// Emit appends a signal, evicting the oldest when full.
func (l *Ledger) Emit(_ context.Context, s signal.Signal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.signals = append(l.signals, s)
	if l.limit > 0 && len(l.signals) > l.limit {
		l.signals = append(l.signals[:0], l.signals[len(l.signals)-l.limit:]...)
	}
	return nil
}

// Snapshot returns a copy of the recorded signals.
func (l *Ledger) Snapshot() []signal.Signal {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]signal.Signal, len(l.signals))
	copy(out, l.signals)
	return out
}

// Reset clears all stored signals.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.signals = l.signals[:0]
	l.mu.Unlock()
}

// Package notify delivers assembled signals to logs, files and push services.
package notify

import (
	"context"
	"errors"

	"github.com/pj950/ffftttt/internal/metrics"
	"github.com/pj950/ffftttt/internal/signal"
)

// Sink receives emitted signals. Implementations must be safe for concurrent use.
type Sink interface {
	Name() string
	Emit(ctx context.Context, s signal.Signal) error
}

// Multi fans a signal out to every sink. One failing sink does not stop the others.
type Multi []Sink

// Name identifies the fan-out.
func (m Multi) Name() string { return "multi" }

// Emit delivers s to every sink and joins their errors.
func (m Multi) Emit(ctx context.Context, s signal.Signal) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Emit(ctx, s); err != nil {
			metrics.NotifyFailures.WithLabelValues(sink.Name()).Inc()
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

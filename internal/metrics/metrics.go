// Package metrics exposes Prometheus counters for the signal pipeline.
package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BarsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bars_total", Help: "Count of bars evaluated"},
		[]string{"symbol", "timeframe"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Signals emitted"},
		[]string{"symbol", "timeframe", "side"},
	)
	SuppressedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_suppressed_total", Help: "Signals suppressed by the fundamentals gate"},
		[]string{"reason"},
	)
	CooldownHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cooldown_hits_total", Help: "Signals silenced by an active cooldown"},
		[]string{"symbol", "timeframe", "side"},
	)
	IndicatorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "indicator_failures_total", Help: "Indicator computations replaced by undefined columns"},
		[]string{"indicator"},
	)
	FeedReconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "feed_reconnects_total", Help: "Market data stream reconnect attempts"},
		[]string{"provider"},
	)
	NotifyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "notify_failures_total", Help: "Signals a sink failed to deliver"},
		[]string{"sink"},
	)
)

func init() {
	prometheus.MustRegister(BarsTotal, SignalsTotal, SuppressedTotal, CooldownHits, IndicatorFailures, FeedReconnects, NotifyFailures)
}

// Serve exposes the default registry on addr at /metrics in a background goroutine.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

// ReasonCode trims a gate failure reason down to its code so label cardinality stays bounded.
func ReasonCode(reason string) string {
	code, _, _ := strings.Cut(reason, ":")
	return code
}

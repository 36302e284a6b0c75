// AngelaMos | 2026
// metrics.go

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
)

// Engine holds the marketplace engine's Prometheus collectors. A nil
// *Engine is valid and records nothing.
type Engine struct {
	Registry *prometheus.Registry

	operations  *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	priceChange prometheus.Counter
}

func New(namespace string) *Engine {
	registry := prometheus.NewRegistry()

	e := &Engine{
		Registry: registry,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Engine operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Engine operation latency including the store transaction.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_transitions_total",
			Help:      "Committed transaction status transitions.",
		}, []string{"from", "to"}),
		priceChange: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_changes_total",
			Help:      "Committed listing price changes.",
		}),
	}

	registry.MustRegister(
		e.operations,
		e.latency,
		e.transitions,
		e.priceChange,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return e
}

// Observe records one finished operation. Use as
// `defer m.Observe("listing.create", time.Now(), &err)`.
func (e *Engine) Observe(operation string, start time.Time, errp *error) {
	if e == nil {
		return
	}

	var err error
	if errp != nil {
		err = *errp
	}

	e.operations.WithLabelValues(operation, core.Kind(err)).Inc()
	e.latency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (e *Engine) Transition(from, to string) {
	if e == nil {
		return
	}
	e.transitions.WithLabelValues(from, to).Inc()
}

func (e *Engine) PriceChanged() {
	if e == nil {
		return
	}
	e.priceChange.Inc()
}

func (e *Engine) Handler() http.Handler {
	return promhttp.HandlerFor(e.Registry, promhttp.HandlerOpts{Registry: e.Registry})
}

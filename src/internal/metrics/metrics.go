// Package metrics holds the service's prometheus collectors. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fcy_ledger"

type Metrics struct {
	registry *prometheus.Registry

	LedgerOperations      *prometheus.CounterVec
	FXConversions         *prometheus.CounterVec
	SettlementTransitions *prometheus.CounterVec
	AMLAlerts             *prometheus.CounterVec
	CacheLookups          *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LedgerOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Ledger operations by type and outcome.",
		}, []string{"operation", "outcome"}),
		FXConversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fx_conversions_total",
			Help:      "Completed currency conversions by pair.",
		}, []string{"from", "to"}),
		SettlementTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_transitions_total",
			Help:      "Settlement status transitions by target status.",
		}, []string{"status"}),
		AMLAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aml_alerts_total",
			Help:      "AML alerts created by type and severity.",
		}, []string{"type", "severity"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache name and result.",
		}, []string{"cache", "result"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.LedgerOperations,
		m.FXConversions,
		m.SettlementTransitions,
		m.AMLAlerts,
		m.CacheLookups,
		m.HTTPRequestDuration,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) LedgerOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.LedgerOperations.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) FXConversion(from, to string) {
	if m == nil {
		return
	}
	m.FXConversions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) SettlementTransition(status string) {
	if m == nil {
		return
	}
	m.SettlementTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) AMLAlert(alertType, severity string) {
	if m == nil {
		return
	}
	m.AMLAlerts.WithLabelValues(alertType, severity).Inc()
}

func (m *Metrics) CacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

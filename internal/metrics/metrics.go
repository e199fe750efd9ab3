package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domainErrors "github.com/polkiloo/creditscore/internal/domain/errors"
)

const namespace = "creditscore"

// Loan transitions reported through ObserveLoanTransition.
const (
	LoanOpened    = "opened"
	LoanRepaid    = "repaid"
	LoanDefaulted = "defaulted"
)

// Metrics collects ledger and transport metrics on a private registry.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	loans      *prometheus.CounterVec
	scores     prometheus.Histogram
	height     prometheus.Gauge
	refreshes  *prometheus.CounterVec
	requests   *prometheus.CounterVec
}

// New builds Metrics with a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of ledger operations in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		loans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loan_transitions_total",
			Help:      "Loan lifecycle transitions.",
		}, []string{"transition"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "credit_score",
			Help:      "Distribution of computed credit scores.",
			Buckets:   prometheus.LinearBuckets(300, 50, 12),
		}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "block_height",
			Help:      "Last block height observed by the ledger.",
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_refreshes_total",
			Help:      "Background score refreshes by outcome.",
		}, []string{"outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
	}
	registry.MustRegister(
		m.operations, m.durations, m.loans, m.scores, m.height, m.refreshes, m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Outcome maps an operation error to a metric label.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code := domainErrors.Code(err); code != "" {
		return strings.ToLower(code)
	}
	return "error"
}

func (m *Metrics) ObserveOperation(operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, Outcome(err)).Inc()
	m.durations.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveLoanTransition(transition string) {
	if m == nil {
		return
	}
	m.loans.WithLabelValues(transition).Inc()
}

func (m *Metrics) ObserveScore(score uint32) {
	if m == nil {
		return
	}
	m.scores.Observe(float64(score))
}

func (m *Metrics) SetHeight(h uint64) {
	if m == nil {
		return
	}
	m.height.Set(float64(h))
}

func (m *Metrics) ObserveRefresh(err error) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(Outcome(err)).Inc()
}

func (m *Metrics) ObserveRequest(route, method string, status int) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

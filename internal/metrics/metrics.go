// Package metrics holds the Prometheus collectors shared by the server,
// the synchronizer and the AI gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels used by the counters below.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics groups every collector the application exports.
type Metrics struct {
	HTTPDuration *prometheus.SummaryVec
	HTTPRequests *prometheus.CounterVec
	SyncPushes   *prometheus.CounterVec
	AIRequests   *prometheus.CounterVec
	AIDuration   *prometheus.SummaryVec

	gatherer prometheus.Gatherer
}

// Default is registered with the process-wide Prometheus registry.
var Default = New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)

// New registers a fresh set of collectors with reg. Tests pass a private
// prometheus.NewRegistry() to keep counts isolated.
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	objectives := map[float64]float64{
		0.5:  0.05,
		0.9:  0.01,
		0.95: 0.005,
		0.99: 0.001,
	}

	return &Metrics{
		HTTPDuration: factory.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "resume_matcher_http_request_duration_seconds",
				Help:       "HTTP request duration in seconds",
				Objectives: objectives,
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_matcher_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		SyncPushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_matcher_sync_pushes_total",
				Help: "Resume pushes to the remote store by outcome",
			},
			[]string{"outcome"},
		),
		AIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_matcher_ai_requests_total",
				Help: "AI gateway calls by operation, provider and outcome",
			},
			[]string{"operation", "provider", "outcome"},
		),
		AIDuration: factory.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "resume_matcher_ai_request_duration_seconds",
				Help:       "AI gateway call duration in seconds",
				Objectives: objectives,
			},
			[]string{"operation", "provider"},
		),
		gatherer: gatherer,
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	m.HTTPDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
	m.HTTPRequests.WithLabelValues(method, path, code).Inc()
}

// ObserveSync records the outcome of one push.
func (m *Metrics) ObserveSync(err error) {
	m.SyncPushes.WithLabelValues(outcome(err)).Inc()
}

// ObserveAI records one gateway call.
func (m *Metrics) ObserveAI(operation, provider string, elapsed time.Duration, err error) {
	m.AIRequests.WithLabelValues(operation, provider, outcome(err)).Inc()
	m.AIDuration.WithLabelValues(operation, provider).Observe(elapsed.Seconds())
}

// Handler exposes the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

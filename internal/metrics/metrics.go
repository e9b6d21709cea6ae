package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the storefront counters. A nil *Metrics is a no-op.
type Metrics struct {
	OrdersTotal            *prometheus.CounterVec
	ChallengeVerifications *prometheus.CounterVec
	AttemptStoreErrors     prometheus.Counter
	ImportRowsTotal        *prometheus.CounterVec
	ImportRunsTotal        *prometheus.CounterVec
	NotificationFailures   prometheus.Counter
	NovaPoshtaCacheTotal   *prometheus.CounterVec
	NovaPoshtaCallDuration prometheus.Histogram
}

// New registers the storefront metrics with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OrdersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dieselhub_orders_total",
			Help: "Order submissions by gate outcome",
		}, []string{"outcome"}),
		ChallengeVerifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dieselhub_challenge_verifications_total",
			Help: "Turnstile token verifications by result",
		}, []string{"result"}),
		AttemptStoreErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "dieselhub_attempt_store_errors_total",
			Help: "Attempt store failures seen by the order gate",
		}),
		ImportRowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dieselhub_import_rows_total",
			Help: "Catalog import rows by result",
		}, []string{"result"}),
		ImportRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dieselhub_import_runs_total",
			Help: "Catalog import runs by mode and status",
		}, []string{"mode", "status"}),
		NotificationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "dieselhub_notification_failures_total",
			Help: "Order notifications that could not be delivered",
		}),
		NovaPoshtaCacheTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dieselhub_novaposhta_cache_total",
			Help: "Nova Poshta lookups by cache result",
		}, []string{"result"}),
		NovaPoshtaCallDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dieselhub_novaposhta_call_duration_seconds",
			Help:    "Duration of Nova Poshta API calls",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncOrder(outcome string) {
	if m == nil {
		return
	}
	m.OrdersTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncChallenge(success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.ChallengeVerifications.WithLabelValues(result).Inc()
}

func (m *Metrics) IncAttemptStoreError() {
	if m == nil {
		return
	}
	m.AttemptStoreErrors.Inc()
}

func (m *Metrics) AddImportRows(result string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ImportRowsTotal.WithLabelValues(result).Add(float64(n))
}

func (m *Metrics) IncImportRun(mode, status string) {
	if m == nil {
		return
	}
	m.ImportRunsTotal.WithLabelValues(mode, status).Inc()
}

func (m *Metrics) IncNotificationFailure() {
	if m == nil {
		return
	}
	m.NotificationFailures.Inc()
}

func (m *Metrics) IncNovaPoshtaCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.NovaPoshtaCacheTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveNovaPoshtaCall(seconds float64) {
	if m == nil {
		return
	}
	m.NovaPoshtaCallDuration.Observe(seconds)
}

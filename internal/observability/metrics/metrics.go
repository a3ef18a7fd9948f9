package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "dairy_billing_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	generateRuns    *prometheus.CounterVec
	generateLatency *prometheus.HistogramVec
	generateOutcome *prometheus.CounterVec
	generateRetries prometheus.Counter

	reconcileTotal *prometheus.CounterVec

	notificationTotal   *prometheus.CounterVec
	notificationLatency *prometheus.HistogramVec

	statementExportTotal   *prometheus.CounterVec
	statementExportLatency *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
)

// Init registers billing metrics with the default registry. Safe to call repeatedly.
func Init() {
	registerOnce.Do(func() {
		generateRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "generate_runs_total",
				Help: "Total bill generation runs by result",
			},
			[]string{"result"},
		)
		generateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "generate_latency_seconds",
				Help:    "Bill generation run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		generateOutcome = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "generate_customer_outcomes_total",
				Help: "Per-customer bill generation outcomes",
			},
			[]string{"outcome"},
		)
		generateRetries = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "generate_conflict_retries_total",
				Help: "Conflicts retried during bill generation",
			},
		)

		reconcileTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconcile_total",
				Help: "Balance recomputations by result",
			},
			[]string{"result"},
		)

		notificationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notification_total",
				Help: "Statement notifications by result and failure reason",
			},
			[]string{"result", "reason"},
		)
		notificationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "notification_latency_seconds",
				Help:    "Statement notification latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		statementExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_export_total",
				Help: "Total statement export operations by format and result",
			},
			[]string{"format", "result"},
		)
		statementExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "statement_export_latency_seconds",
				Help:    "Statement export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		prometheus.MustRegister(
			generateRuns,
			generateLatency,
			generateOutcome,
			generateRetries,
			reconcileTotal,
			notificationTotal,
			notificationLatency,
			statementExportTotal,
			statementExportLatency,
			httpRequests,
			httpLatency,
		)
	})
}

func resultOf(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// ObserveGenerateRun records one generate call.
func ObserveGenerateRun(err error, duration time.Duration) {
	result := resultOf(err)
	if generateRuns != nil {
		generateRuns.WithLabelValues(result).Inc()
	}
	if generateLatency != nil {
		generateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncGenerateOutcome counts a per-customer outcome.
func IncGenerateOutcome(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if generateOutcome != nil {
		generateOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncGenerateRetry counts a retried conflict.
func IncGenerateRetry() {
	if generateRetries != nil {
		generateRetries.Inc()
	}
}

// IncReconcile counts a balance recomputation.
func IncReconcile(err error) {
	if reconcileTotal != nil {
		reconcileTotal.WithLabelValues(resultOf(err)).Inc()
	}
}

// ObserveNotification records a delivery attempt. reason is empty on success.
func ObserveNotification(delivered bool, reason string, duration time.Duration) {
	result := resultSuccess
	if !delivered {
		result = resultError
		if reason == "" {
			reason = "unknown"
		}
	}
	if notificationTotal != nil {
		notificationTotal.WithLabelValues(result, reason).Inc()
	}
	if notificationLatency != nil {
		notificationLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveStatementExport records export latency and result.
func ObserveStatementExport(format string, err error, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	result := resultOf(err)
	if statementExportTotal != nil {
		statementExportTotal.WithLabelValues(format, result).Inc()
	}
	if statementExportLatency != nil {
		statementExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// ObserveHTTPRequest records a served request. route is the matched route template.
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, status).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "greenreach"

// Mirror anomaly kinds.
const (
	AnomalyMissingMirror  = "missing_mirror"  // canonical entry without an applicant entry
	AnomalyOrphanMirror   = "orphan_mirror"   // applicant entry without a canonical entry
	AnomalyStatusMismatch = "status_mismatch" // both present, statuses differ
	AnomalyDangling       = "dangling_entry"  // canonical entry for a deleted opportunity
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "submitted_total",
			Help:      "Applications created, by entry point.",
		},
		[]string{"variant"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "transitions_total",
			Help:      "Application status transitions.",
		},
		[]string{"from", "to"},
	)

	withdrawals = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "withdrawn_total",
			Help:      "Applications withdrawn by volunteers.",
		},
	)

	mirrorAnomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mirror",
			Name:      "anomalies_total",
			Help:      "Disagreements found between canonical and mirrored application entries.",
		},
		[]string{"kind"},
	)

	mirrorRepairs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mirror",
			Name:      "repairs_total",
			Help:      "Mirror entries repaired by the reconciler.",
		},
		[]string{"action"},
	)

	reconcileRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Reconciliation passes.",
		},
		[]string{"success"},
	)

	reconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "run_duration_seconds",
			Help:      "Duration of reconciliation passes.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	txnFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "txn_fallbacks_total",
			Help:      "Multi-document writes run without a transaction because the server does not support one.",
		},
	)

	throttled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "rejected_total",
			Help:      "Requests rejected by throttling.",
		},
		[]string{"scope"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		submissions,
		transitions,
		withdrawals,
		mirrorAnomalies,
		mirrorRepairs,
		reconcileRuns,
		reconcileDuration,
		txnFallbacks,
		throttled,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// The route label is the chi route pattern, so path parameters do not
// explode label cardinality.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordSubmission counts a new application.
func RecordSubmission(variant string) { submissions.WithLabelValues(variant).Inc() }

// RecordTransition counts a status change.
func RecordTransition(from, to string) { transitions.WithLabelValues(from, to).Inc() }

// RecordWithdrawal counts a withdrawal.
func RecordWithdrawal() { withdrawals.Inc() }

// RecordMirrorAnomaly counts a canonical/mirror disagreement.
func RecordMirrorAnomaly(kind string) { mirrorAnomalies.WithLabelValues(kind).Inc() }

// RecordMirrorRepair counts a repair made by the reconciler.
func RecordMirrorRepair(action string) { mirrorRepairs.WithLabelValues(action).Inc() }

// RecordReconcile records one reconciliation pass.
func RecordReconcile(duration time.Duration, success bool) {
	reconcileRuns.WithLabelValues(strconv.FormatBool(success)).Inc()
	reconcileDuration.Observe(duration.Seconds())
}

// RecordTxnFallback counts a write that ran without a transaction.
func RecordTxnFallback() { txnFallbacks.Inc() }

// RecordThrottled counts a rejected request.
func RecordThrottled(scope string) { throttled.WithLabelValues(scope).Inc() }

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

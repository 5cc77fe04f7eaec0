package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "curriculum"

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total", Help: "Handled HTTP requests",
	}, []string{"method", "route", "status"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	ApprovalTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "week_approval_transitions_total", Help: "Week approvals by resulting status",
	}, []string{"status"})
	PendingApprovals = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "pending_approvals", Help: "Week approvals awaiting a mentor decision",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
	JobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "job_runs_total", Help: "Background job runs",
	}, []string{"job"})
	JobErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "job_errors_total", Help: "Background job errors",
	}, []string{"job"})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, ApprovalTransitions, PendingApprovals, DBPing, JobRuns, JobErrors)
}

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveTransition(status string) { ApprovalTransitions.WithLabelValues(status).Inc() }

// Package metrics defines Prometheus metrics for the timetrack server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timetrack_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timetrack_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	AuditEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timetrack_audit_events_total",
			Help: "Audit events recorded, by action",
		},
		[]string{"action"},
	)

	AccessDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timetrack_access_denied_total",
			Help: "Requests rejected by the access guard, by kind",
		},
		[]string{"kind"},
	)

	LoginFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "timetrack_login_failures_total",
			Help: "Failed login attempts",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal,
		AuditEventsTotal, AccessDeniedTotal, LoginFailuresTotal,
	)
}

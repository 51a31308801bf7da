package client

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the client's Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	refreshes *prometheus.CounterVec
	teardowns *prometheus.CounterVec
}

// NewMetrics builds the collectors and registers them with reg when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_client_requests_total",
			Help: "API requests by method and response class.",
		}, []string{"method", "class"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helpdesk_client_request_duration_seconds",
			Help:    "API request latency, per attempt.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_client_refresh_total",
			Help: "Access-token refresh outcomes.",
		}, []string{"result"}),
		teardowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_client_session_teardown_total",
			Help: "Sessions ended after an unrecoverable 401.",
		}, []string{"reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.refreshes, m.teardowns)
	}
	return m
}

func (m *Metrics) observeRequest(method, class string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, class).Inc()
	m.duration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) refresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) teardown(reason string) {
	if m == nil {
		return
	}
	m.teardowns.WithLabelValues(reason).Inc()
}

// StatusClass buckets an HTTP status as "2xx".."5xx"; anything else is "other".
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "other"
	}
	return strconv.Itoa(code/100) + "xx"
}

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friends_api_requests_total",
			Help: "Total number of outbound API requests",
		},
		[]string{"path", "method", "status"},
	)
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "friends_api_request_duration_seconds",
			Help:    "Duration of outbound API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	apiRequestFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friends_api_request_failures_total",
			Help: "Total number of outbound API requests that never got a response",
		},
		[]string{"path", "method"},
	)
)

// InitPrometheus registers the metrics. Call this from main.go
func InitPrometheus() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(apiRequestFailures)
}

// MonitoringTransport records stats for every outbound request. The
// label is the route pattern, not the raw URL path, so request ids do
// not explode metric cardinality.
type MonitoringTransport struct {
	Next http.RoundTripper
}

func (t *MonitoringTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	path := routeLabel(req.URL.Path)

	resp, err := t.next().RoundTrip(req)

	duration := time.Since(start).Seconds()
	apiRequestDuration.WithLabelValues(path, req.Method).Observe(duration)

	if err != nil {
		apiRequestFailures.WithLabelValues(path, req.Method).Inc()
		return nil, err
	}
	apiRequestsTotal.WithLabelValues(path, req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}

func (t *MonitoringTransport) next() http.RoundTripper {
	if t.Next != nil {
		return t.Next
	}
	return http.DefaultTransport
}

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh outcomes recorded by the request pipeline.
const (
	RefreshSucceeded = "succeeded"
	RefreshFailed    = "failed"
)

// Recorder instruments the request pipeline. A nil Recorder is valid
// and records nothing, so callers never guard their calls.
type Recorder struct {
	requests  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewRecorder registers the pipeline metrics with the given registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tastemate",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "API requests by method and response class.",
		}, []string{"method", "class"}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tastemate",
			Subsystem: "client",
			Name:      "token_refresh_total",
			Help:      "Token refresh attempts by outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tastemate",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Request records one completed round trip. A status of zero means the
// request never produced a response (transport failure).
func (r *Recorder) Request(method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	class := "error"
	if status > 0 {
		class = strconv.Itoa(status/100) + "xx"
	}
	r.requests.WithLabelValues(method, class).Inc()
	r.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Refresh records one token refresh attempt.
func (r *Recorder) Refresh(outcome string) {
	if r == nil {
		return
	}
	r.refreshes.WithLabelValues(outcome).Inc()
}

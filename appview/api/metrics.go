package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cookbook",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Backend requests by method and status code; code is 0 when no response arrived.",
	}, []string{"method", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cookbook",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Backend request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

func observe(method string, code int, start time.Time) {
	requestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

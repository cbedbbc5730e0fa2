package client

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Subsystem: "sheets",
		Name:      "requests_total",
		Help:      "Spreadsheet requests by operation and outcome.",
	}, []string{"operation", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dashboard",
		Subsystem: "sheets",
		Name:      "request_duration_seconds",
		Help:      "Spreadsheet request latency, retries included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dashboard",
		Subsystem: "sheets",
		Name:      "retries_total",
		Help:      "Spreadsheet requests retried after a transient failure.",
	})
)

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, ErrPermissionDenied):
		return "permission"
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidRange):
		return "not_found"
	default:
		return "error"
	}
}

package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

var (
	ticketOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketi_ticket_operations_total",
			Help: "Total ticket operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	ticketOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketi_ticket_operation_duration_seconds",
			Help:    "Duration of ticket operations including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	purchaseRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketi_purchase_retries_total",
			Help: "Primary purchase attempts retried after a concurrency conflict",
		},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketi_availability_cache_lookups_total",
			Help: "Availability cache lookups by result",
		},
		[]string{"result"},
	)
)

// Classifier decides the outcome label of a finished operation.
type Classifier func(err error) string

// Observe records one finished ticket operation.
func Observe(operation string, start time.Time, err error, classify Classifier) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = classify(err)
	}

	ticketOperations.WithLabelValues(operation, outcome).Inc()
	ticketOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func PurchaseRetried() {
	purchaseRetries.Inc()
}

func CacheHit() {
	cacheLookups.WithLabelValues("hit").Inc()
}

func CacheMiss() {
	cacheLookups.WithLabelValues("miss").Inc()
}

func CacheError() {
	cacheLookups.WithLabelValues("error").Inc()
}

// ClassifyWith builds a Classifier that reports conflict for the given
// conflict error, rejected for any of the business errors and error otherwise.
func ClassifyWith(conflict error, rejections ...error) Classifier {
	return func(err error) string {
		if errors.Is(err, conflict) {
			return OutcomeConflict
		}
		for _, r := range rejections {
			if errors.Is(err, r) {
				return OutcomeRejected
			}
		}
		return OutcomeError
	}
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Storage operation metrics
var (
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfer_operations_total",
			Help: "Total number of storage operations by outcome",
		},
		[]string{"operation", "status"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transfer_operation_duration_seconds",
			Help:    "Duration of storage operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	BytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfer_bytes_total",
			Help: "Total number of payload bytes moved",
		},
		[]string{"direction"},
	)

	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfer_verifications_total",
			Help: "Total number of round-trip verifications by outcome",
		},
		[]string{"outcome"},
	)
)

const (
	DirectionUpload   = "upload"
	DirectionDownload = "download"
)

// ObserveOperation records the outcome and latency of a storage operation.
// status is the error kind label, or "success" when err is nil.
func ObserveOperation(operation string, start time.Time, status string) {
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

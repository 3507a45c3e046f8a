// Package metrics provides Prometheus metrics for shardstore operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Adapter operation metrics
	AdapterOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shardstore_adapter_ops_total",
			Help: "Total number of storage adapter operations",
		},
		[]string{"backend", "operation"},
	)

	AdapterOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shardstore_adapter_op_duration_seconds",
			Help:    "Storage adapter operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shardstore_errors_total",
			Help: "Total number of adapter errors by kind",
		},
		[]string{"backend", "operation", "kind"},
	)

	// Shard stream metrics
	ShardBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shardstore_shard_bytes_total",
			Help: "Total shard payload bytes moved through adapter streams",
		},
		[]string{"backend", "direction"}, // direction: "read", "write"
	)
)

// RegisterMetrics ensures all metrics are registered with Prometheus.
// This function is idempotent and safe to call multiple times.
func RegisterMetrics() {
	// All metrics are automatically registered via promauto.
	// This function exists for explicit initialization if needed.
}

// Package metrics provides the centralized Prometheus metrics registry for
// the offline client. All metrics are defined in their respective packages
// (store, strategy, lifecycle, notify) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the offline client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/store):
//   - offline_cache_hits_total{backend} (Counter): Cache hits by backend (memory, redis)
//   - offline_cache_misses_total (Counter): Cache misses
//   - offline_cache_write_bytes_total{backend} (Counter): Bytes written to the cache by backend
//   - offline_cache_errors_total{operation} (Counter): Cache operation errors (get, put, delete)
//   - offline_cache_generations_deleted_total (Counter): Stale generations deleted during activate
//
// Strategy Metrics (pkg/strategy):
//   - offline_strategy_requests_total{strategy, outcome} (Counter): Intercepted requests
//     by strategy (cache_first, network_first) and outcome (cache, network, fallback,
//     unavailable, error)
//   - offline_background_task_failures_total{task} (Counter): Detached background task failures
//
// Lifecycle Metrics (pkg/lifecycle):
//   - offline_lifecycle_installs_total{result} (Counter): Install attempts by result
//   - offline_lifecycle_install_duration_seconds (Histogram): Time to populate a static generation
//   - offline_lifecycle_activations_total (Counter): Completed activations
//
// Notification Metrics (pkg/notify):
//   - offline_pushes_total{result} (Counter): Push deliveries by result (displayed,
//     malformed, error)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(offline_cache_hits_total[5m])) /
//   (sum(rate(offline_cache_hits_total[5m])) + sum(rate(offline_cache_misses_total[5m])))
//
//   # Offline Fallback Rate
//   rate(offline_strategy_requests_total{outcome="fallback"}[5m])
//
//   # Install Failure Rate
//   rate(offline_lifecycle_installs_total{result="failure"}[5m])
//
//   # P95 Install Duration
//   histogram_quantile(0.95, rate(offline_lifecycle_install_duration_seconds_bucket[5m]))
//
//   # Malformed Push Rate
//   rate(offline_pushes_total{result="malformed"}[5m])

package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks generation lookups that found an entry, by backend.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offline_cache_hits_total",
			Help: "Total number of generation cache hits",
		},
		[]string{"backend"}, // "redis", "memory"
	)

	// CacheMisses tracks generation lookups that found nothing.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "offline_cache_misses_total",
			Help: "Total number of generation cache misses",
		},
	)

	// CacheWriteBytes tracks bytes written into generations, by backend.
	CacheWriteBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offline_cache_write_bytes_total",
			Help: "Total bytes written into cache generations",
		},
		[]string{"backend"},
	)

	// CacheErrors tracks cache operation errors.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offline_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "put", "delete", "list"
	)

	// GenerationsDeleted tracks stale generations removed during activate.
	GenerationsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "offline_cache_generations_deleted_total",
			Help: "Total number of cache generations deleted",
		},
	)
)

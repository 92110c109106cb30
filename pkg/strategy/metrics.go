package strategy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal tracks executed requests by strategy and outcome.
	// Outcomes: cache, network, fallback, unavailable, error.
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offline_strategy_requests_total",
		Help: "Total intercepted requests by strategy and outcome",
	}, []string{"strategy", "outcome"})

	// backgroundFailures tracks failed detached tasks by task name.
	backgroundFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offline_background_task_failures_total",
		Help: "Total number of failed background tasks",
	}, []string{"task"})
)

const (
	outcomeCache       = "cache"
	outcomeNetwork     = "network"
	outcomeFallback    = "fallback"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
)

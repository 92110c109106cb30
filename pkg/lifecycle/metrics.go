package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// installsTotal tracks install attempts by result.
	installsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offline_lifecycle_installs_total",
		Help: "Total install attempts by result",
	}, []string{"result"}) // "success", "failure"

	// installDuration tracks how long successful installs take.
	installDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "offline_lifecycle_install_duration_seconds",
		Help:    "Duration of successful installs in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	// activationsTotal counts completed activate cycles.
	activationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "offline_lifecycle_activations_total",
		Help: "Total completed activation cycles",
	})
)

package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// pushesTotal tracks push deliveries by result: displayed, malformed, error.
var pushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "offline_pushes_total",
	Help: "Total push deliveries by result",
}, []string{"result"})

package advice

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var results = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "wealth",
		Subsystem: "advice",
		Name:      "results_total",
		Help:      "Advice results by operation and text source (provider, fallback, error).",
	},
	[]string{"operation", "source"},
)

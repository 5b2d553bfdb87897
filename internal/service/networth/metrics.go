package networth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var syncOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "wealth",
		Subsystem: "networth",
		Name:      "sync_total",
		Help:      "Balance synchronizations by operation, payment method and outcome.",
	},
	[]string{"operation", "payment_method", "outcome"},
)

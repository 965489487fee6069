package retry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var retrySleeps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hunter_retry_sleeps_total",
	Help: "The total number of backoff sleeps taken before retrying a provider call",
}, []string{"kind"})

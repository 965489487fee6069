package automaton

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var labeledAccounts = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "hunter_labeled_accounts",
	Help: "The number of accounts in the labeled set",
})

var promotions = promauto.NewCounter(prometheus.CounterOpts{
	Name: "hunter_promotions_total",
	Help: "The total number of candidates promoted into the labeled set",
})

var roundsCompleted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "hunter_rounds_total",
	Help: "The total number of automaton rounds run",
})

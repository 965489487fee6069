package crawl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var pagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hunter_crawl_pages_fetched_total",
	Help: "The total number of listing pages fetched",
}, []string{"direction"})

var candidatesAdmitted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "hunter_crawl_candidates_admitted_total",
	Help: "The total number of listed accounts that passed the admission filter",
})

var candidatesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hunter_crawl_candidates_rejected_total",
	Help: "The total number of listed accounts rejected by the admission filter",
}, []string{"reason"})

// Package metrics holds Prometheus instruments that are used across the
// rewriter.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ResolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanurl_resolve_total",
			Help: "Inbound clean-path resolutions by matching category and outcome.",
		}, []string{"category", "outcome"})

	CleanTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanurl_clean_total",
			Help: "Outbound canonical-URL cleanings by outcome.",
		}, []string{"outcome"})

	CollisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanurl_collisions_total",
			Help: "Candidate clean paths rejected because they shadow a real file or directory.",
		}, []string{"category"})

	ConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cleanurl_param_conflicts_total",
			Help: "Requests halted because a canonical parameter was already present.",
		})

	LookupCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanurl_lookup_cache_total",
			Help: "Lookup cache hits and misses.",
		}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		ResolveTotal,
		CleanTotal,
		CollisionsTotal,
		ConflictsTotal,
		LookupCacheTotal,
	)
}

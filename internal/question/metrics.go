package question

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sourceContributions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "question_source_contributions_total",
		Help: "Questions contributed to resolved sets, by source.",
	}, []string{"source"})

	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "question_cache_hits_total",
		Help: "Resolutions served from a cache layer.",
	}, []string{"layer"})

	fallbackServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "question_fallback_served_total",
		Help: "Resolutions that fell back past all live sources.",
	}, []string{"kind"})

	sourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "question_source_failures_total",
		Help: "Source fetches that contributed zero records due to errors.",
	}, []string{"source"})
)

package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redflag_analyses_total",
		Help: "Total document analyses by result",
	}, []string{"result"})

	findingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redflag_findings_total",
		Help: "Findings produced before de-duplication, by source",
	}, []string{"source"})

	duplicatesRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "redflag_duplicates_removed_total",
		Help: "Findings dropped as near-duplicates",
	})

	providerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redflag_provider_failures_total",
		Help: "Semantic provider calls that failed or timed out",
	}, []string{"provider"})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "redflag_analysis_duration_seconds",
		Help:    "End-to-end analysis duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 15), // 10ms to ~160s
	})
)

// Package metrics provides Prometheus metrics for the extraction pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for ExtractionsTotal.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeNoMatch   = "no_match"
	OutcomeBadURL    = "invalid_url"
	OutcomeCancelled = "cancelled"
)

var (
	// ExtractionsTotal counts registry lookups by extractor and outcome.
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unfurl",
			Name:      "extractions_total",
			Help:      "Total number of extraction requests",
		},
		[]string{"extractor", "outcome"},
	)

	// ExtractionDuration measures time spent inside an extractor.
	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "unfurl",
			Name:      "extraction_duration_seconds",
			Help:      "Duration of extractions in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"extractor"},
	)

	// EmbedFlags counts produced embeds per safety flag.
	EmbedFlags = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unfurl",
			Name:      "embed_flags_total",
			Help:      "Produced embeds carrying each safety flag",
		},
		[]string{"extractor", "flag"},
	)
)

// Observe records one finished extraction.
func Observe(extractor, outcome string, took time.Duration) {
	ExtractionsTotal.WithLabelValues(extractor, outcome).Inc()
	if extractor != "" {
		ExtractionDuration.WithLabelValues(extractor).Observe(took.Seconds())
	}
}

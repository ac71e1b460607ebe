// Package metrics defines the Prometheus instrumentation shared across
// the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_events_ingested_total",
			Help: "Total number of events ingested",
		},
		[]string{"source_category"},
	)

	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_alerts_generated_total",
			Help: "Total number of alerts generated",
		},
		[]string{"type", "severity"},
	)

	AlertsDeduplicated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_alerts_deduplicated_total",
			Help: "Total number of alert candidates suppressed by deduplication",
		},
		[]string{"type"},
	)

	BatchProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "argus_batch_processing_duration_seconds",
			Help:    "Time taken to process one ingested batch end to end",
			Buckets: prometheus.DefBuckets,
		},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_notification_failures_total",
			Help: "Total number of failed alert notification deliveries",
		},
		[]string{"sink"},
	)

	EnrichmentLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_enrichment_lookups_total",
			Help: "Total number of geo enrichment lookups",
		},
		[]string{"result"},
	)
)

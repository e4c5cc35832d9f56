package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event log metrics
	RecordsAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "axtext_records_appended_total",
			Help: "Total records appended to the event log",
		},
	)
	RecordsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "axtext_records_evicted_total",
			Help: "Total records evicted from the event log by the sliding window",
		},
	)
	LogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "axtext_log_size",
			Help: "Current number of records held by the event log",
		},
	)
	Subscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "axtext_log_subscribers",
			Help: "Number of registered event log subscribers",
		},
	)
	SubscriberFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "axtext_subscriber_failures_total",
			Help: "Subscriber callbacks that panicked during notification",
		},
	)

	// Tree walker metrics
	RecordsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "axtext_walker_records_emitted_total",
			Help: "Records emitted by the tree walker by source",
		},
		[]string{"source"},
	)
	NodeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "axtext_walker_node_failures_total",
			Help: "Nodes or subtrees skipped because reading them failed",
		},
	)
	ObservationsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "axtext_observations_rejected_total",
			Help: "Observations aborted before traversal",
		},
		[]string{"reason"},
	)

	// Capture pipeline metrics
	RecordsFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "axtext_capture_filtered_total",
			Help: "Records dropped by capture filter rules",
		},
		[]string{"rule"},
	)
	RuleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "axtext_capture_rule_errors_total",
			Help: "Capture rule evaluations that failed at runtime",
		},
		[]string{"rule"},
	)
	FeedLines = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "axtext_feed_lines_total",
			Help: "Observation feed lines read by outcome",
		},
		[]string{"outcome"},
	)
)

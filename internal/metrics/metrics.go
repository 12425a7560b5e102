package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExplorerCallsTotal tracks explorer API calls per action and outcome
	ExplorerCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ringstats_explorer_calls_total",
			Help: "Total number of explorer API calls",
		},
		[]string{"action", "outcome"},
	)

	// ExplorerLatency tracks explorer call latency, pacing excluded
	ExplorerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ringstats_explorer_latency_seconds",
			Help:    "Explorer call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	MetadataCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ringstats_metadata_calls_total",
			Help: "Total number of metadata API calls",
		},
		[]string{"outcome"},
	)

	// MintResolutionsTotal tracks which resolver tier produced each answer
	MintResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ringstats_mint_resolutions_total",
			Help: "Total number of mint resolutions by tier",
		},
		[]string{"tier"},
	)

	RowsReconciledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ringstats_rows_reconciled_total",
			Help: "Total number of table rows visited by the reconciler",
		},
		[]string{"category", "result"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ringstats_notifications_total",
			Help: "Total number of notifications sent",
		},
		[]string{"sink", "outcome"},
	)

	// LastRunTimestamp is the unix time of the last completed reconcile run
	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ringstats_last_run_timestamp_seconds",
			Help: "Unix time of the last completed reconcile run",
		},
	)
)

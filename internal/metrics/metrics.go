package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion Metrics
var (
	// SignalsCollected tracks raw signals fetched per collector
	SignalsCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signals_collected_total",
			Help: "Total raw signals fetched by collector",
		},
		[]string{"collector"},
	)

	// SignalsFiltered tracks signals dropped before classification by reason
	SignalsFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signals_filtered_total",
			Help: "Total signals dropped before classification by reason (empty_text/too_short/no_asset/suspicious_reposts)",
		},
		[]string{"reason"},
	)

	// SignalsScored tracks signals that made it through classification by label
	SignalsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signals_scored_total",
			Help: "Total signals classified and scored by label",
		},
		[]string{"label"},
	)

	// ClassifyDuration tracks per-signal classification latency
	ClassifyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classify_duration_seconds",
			Help:    "Per-signal classification and scoring duration in seconds",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		},
	)

	// CollectorErrors tracks failed fetch cycles per collector
	CollectorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collector_errors_total",
			Help: "Total failed fetch cycles by collector",
		},
		[]string{"collector"},
	)
)

// Aggregation Metrics
var (
	// WindowsClosed tracks closed aggregation windows
	WindowsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "windows_closed_total",
			Help: "Total aggregation windows closed",
		},
	)

	// WindowSampleSize tracks signals per closed window
	WindowSampleSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "window_sample_size",
			Help:    "Signals per closed aggregation window",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 250},
		},
	)

	// WindowOutliersRejected tracks per-window outlier rejections
	WindowOutliersRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "window_outliers_rejected_total",
			Help: "Total signal scores rejected as outliers during window aggregation",
		},
	)

	// LaneQueueDepth tracks current queue depth of per-asset lanes
	LaneQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lane_queue_depth",
			Help: "Current queued signals per asset lane",
		},
		[]string{"asset"},
	)
)

// Consensus Metrics
var (
	// SubmissionsAccepted tracks accepted node submissions
	SubmissionsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "consensus_submissions_accepted_total",
			Help: "Total node submissions accepted into an open epoch",
		},
	)

	// SubmissionsRejected tracks rejected node submissions by reason
	SubmissionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consensus_submissions_rejected_total",
			Help: "Total node submissions rejected by reason (out_of_range/epoch_closed)",
		},
		[]string{"reason"},
	)

	// EpochsReconciled tracks reconciled epochs
	EpochsReconciled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "consensus_epochs_reconciled_total",
			Help: "Total epochs reconciled into a consensus result",
		},
	)

	// EpochsWithoutQuorum tracks provisional results
	EpochsWithoutQuorum = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "consensus_epochs_without_quorum_total",
			Help: "Total reconciled epochs that missed quorum (provisional results)",
		},
	)
)

// Cache and Persistence Metrics
var (
	// SnapshotCacheHits tracks snapshot cache hits
	SnapshotCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_cache_hits_total",
			Help: "Total latest-snapshot reads served from the Redis cache",
		},
	)

	// SnapshotCacheMisses tracks snapshot cache misses
	SnapshotCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_cache_misses_total",
			Help: "Total latest-snapshot reads that fell through to the history store",
		},
	)

	// CacheBreakerState tracks the snapshot cache circuit breaker (0=closed, 1=half-open, 2=open)
	CacheBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_cache_breaker_state",
			Help: "Snapshot cache circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// PersistErrors tracks failed durable writes by table
	PersistErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persist_errors_total",
			Help: "Total failed durable writes by table",
		},
		[]string{"table"},
	)
)

// WebSocket Metrics
var (
	// WebSocketClients tracks connected streaming clients
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients_current",
			Help: "Current number of connected WebSocket clients",
		},
	)

	// WebSocketSlowClientsEvicted tracks evicted slow clients
	WebSocketSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_slow_clients_evicted_total",
			Help: "Total WebSocket clients evicted because their send buffer was full",
		},
	)
)

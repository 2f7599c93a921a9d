package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run metrics
var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clip_relay_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"status"}, // "success", "error"
	)

	RunLastTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clip_relay_run_last_timestamp",
			Help: "Timestamp of the last completed pipeline run",
		},
	)

	RunLastDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clip_relay_run_last_duration_seconds",
			Help: "Duration of the last pipeline run in seconds",
		},
	)

	RunInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clip_relay_run_in_progress",
			Help: "Whether a pipeline run is currently active (1 = running, 0 = idle)",
		},
	)

	FilesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clip_relay_files_skipped_total",
			Help: "Total number of clips skipped by reason",
		},
		[]string{"reason"}, // "processed", "malformed"
	)
)

// Conversion metrics
var (
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clip_relay_conversions_total",
			Help: "Total number of clip conversions by output format and final result",
		},
		[]string{"format", "result"}, // result: "success", "exhausted"
	)

	ConversionAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clip_relay_conversion_attempts_total",
			Help: "Total number of encoder invocations by output format and result",
		},
		[]string{"format", "result"}, // result: "success", "failure"
	)

	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clip_relay_conversion_duration_seconds",
			Help:    "Duration of a single encoder invocation in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"format"},
	)
)

// Delivery metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clip_relay_uploads_total",
			Help: "Total number of Telegram API calls by method and status",
		},
		[]string{"method", "status"}, // status: "success", "error"
	)

	UploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clip_relay_upload_duration_seconds",
			Help:    "Duration of Telegram API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	DeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clip_relay_deletes_total",
			Help: "Total number of post-delivery file deletions by kind and status",
		},
		[]string{"kind", "status"}, // kind: "source", "output", "snapshot"
	)

	SnapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clip_relay_snapshots_total",
			Help: "Total number of snapshot images forwarded by status",
		},
		[]string{"status"}, // "success", "error"
	)
)

// Watch folder metrics
var (
	WatchFolderPending = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clip_relay_watch_folder_pending",
			Help: "Number of files waiting in the watch folder by kind",
		},
		[]string{"kind"}, // "clip", "snapshot"
	)

	ProcessedRecordEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clip_relay_processed_record_entries",
			Help: "Number of distinct names in the processed record",
		},
	)

	WatchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clip_relay_watch_events_total",
			Help: "Total number of watch-mode triggers by source",
		},
		[]string{"source"}, // "fsnotify", "poll", "startup", "manual"
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clip_relay_watcher_errors_total",
			Help: "Total number of file watcher errors",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clip_relay_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries after stale handle errors",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clip_relay_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clip_relay_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clip_relay_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors seen by filesystem operations",
		},
		[]string{"operation"},
	)

	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clip_relay_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations including retries",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)
)

// Package metrics provides Prometheus instrumentation for clip-relay.
//
// All metrics are prefixed with "clip_relay_" and registered with promauto,
// so they appear on the default registry as soon as the package is imported.
// They are only exposed over HTTP in watch mode; a single scheduled run still
// records them so that tests and long-running deployments share one code path.
//
// # Metric Categories
//
// ## Run Metrics
//   - RunsTotal: Counter of pipeline runs by status
//   - RunLastTimestamp / RunLastDuration: Gauges describing the last run
//   - RunInProgress: Gauge that is 1 while a run is active
//   - FilesSkippedTotal: Counter of skipped clips by reason
//
// ## Conversion Metrics
//   - ConversionsTotal: Counter of clips by format and final result
//   - ConversionAttemptsTotal: Counter of encoder invocations
//   - ConversionDuration: Histogram of encoder invocation time
//
// ## Delivery Metrics
//   - UploadsTotal / UploadDuration: Telegram API calls by method
//   - DeletesTotal: Post-delivery deletions by kind and status
//   - SnapshotsTotal: Forwarded snapshot images
//
// ## Watch Folder Metrics
//   - WatchFolderPending: Gauge of waiting clips and snapshots, set by [Collector]
//   - ProcessedRecordEntries: Gauge of names in the processed record
//   - WatchEventsTotal: Counter of watch-mode triggers by source
//
// ## Filesystem Metrics
//
// Recorded through the filesystem.Observer returned by [NewFilesystemObserver]:
//   - FilesystemRetryAttempts, FilesystemRetrySuccess, FilesystemRetryFailures
//   - FilesystemStaleErrors
//   - FilesystemOperationDuration
//
// # Exposing Metrics
//
//	import "github.com/prometheus/client_golang/prometheus/promhttp"
//
//	router.Handle("/metrics", promhttp.Handler())
package metrics

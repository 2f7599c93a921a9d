package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, s := range []string{"success", "error"} {
		RunsTotal.WithLabelValues(s)
		SnapshotsTotal.WithLabelValues(s)
	}

	for _, reason := range []string{"processed", "malformed"} {
		FilesSkippedTotal.WithLabelValues(reason)
	}

	for _, format := range []string{"gif", "mp4"} {
		ConversionsTotal.WithLabelValues(format, "success")
		ConversionsTotal.WithLabelValues(format, "exhausted")
		ConversionAttemptsTotal.WithLabelValues(format, "success")
		ConversionAttemptsTotal.WithLabelValues(format, "failure")
		ConversionDuration.WithLabelValues(format)
	}

	for _, method := range []string{"sendVideo", "sendDocument", "sendPhoto", "sendMessage"} {
		UploadsTotal.WithLabelValues(method, "success")
		UploadsTotal.WithLabelValues(method, "error")
		UploadDuration.WithLabelValues(method)
	}

	for _, kind := range []string{"source", "output", "snapshot"} {
		DeletesTotal.WithLabelValues(kind, "success")
		DeletesTotal.WithLabelValues(kind, "error")
	}

	for _, kind := range []string{"clip", "snapshot"} {
		WatchFolderPending.WithLabelValues(kind)
	}

	for _, source := range []string{"fsnotify", "poll", "startup", "manual"} {
		WatchEventsTotal.WithLabelValues(source)
	}

	for _, op := range []string{"stat", "readdir", "remove"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
		FilesystemOperationDuration.WithLabelValues(op)
	}
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"clip-relay/internal/filesystem"
	"clip-relay/internal/logging"
	"clip-relay/internal/media"
	"clip-relay/internal/mediatypes"
	"clip-relay/internal/metrics"
	"clip-relay/internal/processed"
	"clip-relay/internal/transcoder"
)

const (
	// DefaultMaxAttempts is the number of conversion attempts per clip.
	DefaultMaxAttempts = 20

	// DefaultRetryDelay is the pause between conversion attempts.
	DefaultRetryDelay = 3 * time.Second

	// DefaultInputExtension is the clip extension written by the camera software.
	DefaultInputExtension = ".avi"
)

// Encoder converts a clip into its output format.
type Encoder interface {
	Convert(ctx context.Context, inputPath, outputPath string) transcoder.Result
	OutputPath(inputPath string) string
	Format() mediatypes.OutputFormat
}

// Notifier delivers files and alerts to the chat.
type Notifier interface {
	SendVideo(ctx context.Context, path, caption string) error
	SendDocument(ctx context.Context, path, caption string) error
	SendPhoto(ctx context.Context, path, caption string) error
	SendMessage(ctx context.Context, text string) error
}

// Tracker is the set of names that have already been attempted.
type Tracker interface {
	IsProcessed(name string) bool
	MarkProcessed(name string) error
	Len() int
}

// Config holds the driver settings.
type Config struct {
	WatchDir       string
	ProcessedFile  string
	InputExtension string
	// ProcessAll handles every unprocessed clip; otherwise at most one per run.
	ProcessAll  bool
	MaxAttempts int
	RetryDelay  time.Duration

	SnapshotsEnabled     bool
	SnapshotExtensions   []string
	SnapshotMaxDimension int
	// SnapshotTempDir holds re-encoded snapshots during upload; empty means
	// the system temp directory.
	SnapshotTempDir string

	FSRetry filesystem.RetryConfig
}

// DefaultConfig returns the settings used when nothing is overridden.
func DefaultConfig(watchDir string) Config {
	return Config{
		WatchDir:             watchDir,
		ProcessedFile:        filepath.Join(watchDir, "processed.txt"),
		InputExtension:       DefaultInputExtension,
		ProcessAll:           true,
		MaxAttempts:          DefaultMaxAttempts,
		RetryDelay:           DefaultRetryDelay,
		SnapshotsEnabled:     true,
		SnapshotExtensions:   mediatypes.DefaultSnapshotExtensions,
		SnapshotMaxDimension: media.DefaultSnapshotDimension,
		FSRetry:              filesystem.DefaultRetryConfig(),
	}
}

// Driver runs passes over the watch folder.
type Driver struct {
	config     Config
	encoder    Encoder
	notifier   Notifier
	classifier *mediatypes.Classifier

	openTracker     func(path string) (Tracker, error)
	prepareSnapshot func(src, dir string, maxDimension int) (string, error)
	sleep           func(ctx context.Context, d time.Duration) error

	// tracker is the record opened by the latest run, used by GetStats.
	trackerMu sync.Mutex
	tracker   Tracker
}

// New creates a Driver.
func New(config Config, encoder Encoder, notifier Notifier) *Driver {
	if config.InputExtension == "" {
		config.InputExtension = DefaultInputExtension
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.ProcessedFile == "" {
		config.ProcessedFile = filepath.Join(config.WatchDir, "processed.txt")
	}
	if config.FSRetry == (filesystem.RetryConfig{}) {
		config.FSRetry = filesystem.DefaultRetryConfig()
	}

	var snapshotExts []string
	if config.SnapshotsEnabled {
		snapshotExts = config.SnapshotExtensions
	}

	return &Driver{
		config:          config,
		encoder:         encoder,
		notifier:        notifier,
		classifier:      mediatypes.NewClassifier(config.InputExtension, snapshotExts),
		openTracker:     openRecord,
		prepareSnapshot: media.PrepareSnapshot,
		sleep:           sleepContext,
	}
}

func openRecord(path string) (Tracker, error) {
	return processed.Open(path)
}

// RunOnce performs one pass over the watch folder.
func (d *Driver) RunOnce(ctx context.Context) (Summary, error) {
	start := time.Now()
	metrics.RunInProgress.Set(1)
	defer metrics.RunInProgress.Set(0)

	logging.Info("--- Run started ---")

	summary, err := d.run(ctx)
	summary.Duration = time.Since(start)

	metrics.RunLastTimestamp.SetToCurrentTime()
	metrics.RunLastDuration.Set(summary.Duration.Seconds())

	if err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		logging.Error("Run aborted: %v", err)
		return summary, err
	}

	metrics.RunsTotal.WithLabelValues("success").Inc()
	if summary.Interrupted {
		logging.Warn("--- Run interrupted: %s ---", summary)
	} else {
		logging.Info("--- Run finished: %s ---", summary)
	}
	return summary, nil
}

func (d *Driver) run(ctx context.Context) (Summary, error) {
	var summary Summary

	tracker, err := d.openTracker(d.config.ProcessedFile)
	if err != nil {
		return summary, fmt.Errorf("loading %s: %w", d.config.ProcessedFile, err)
	}
	d.trackerMu.Lock()
	d.tracker = tracker
	d.trackerMu.Unlock()

	clips, snapshots, err := d.scan()
	if err != nil {
		return summary, fmt.Errorf("failed to read watch folder %s: %w", d.config.WatchDir, err)
	}

	summary.Scanned = len(clips)
	if len(clips) == 0 {
		logging.Info("No %s files found.", d.config.InputExtension)
	}

	for _, name := range clips {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		if tracker.IsProcessed(name) {
			logging.Debug("Skipping %s, already processed", name)
			metrics.FilesSkippedTotal.WithLabelValues("processed").Inc()
			summary.Skipped++
			continue
		}

		if !d.processClip(ctx, tracker, d.newWatchedFile(name), &summary) {
			summary.Interrupted = true
			break
		}

		if !d.config.ProcessAll {
			logging.Debug("Single-file mode, leaving remaining clips for the next run")
			break
		}
	}

	if d.config.SnapshotsEnabled && !summary.Interrupted {
		for _, name := range snapshots {
			if ctx.Err() != nil {
				summary.Interrupted = true
				break
			}
			d.forwardSnapshot(ctx, name, &summary)
		}
	}

	return summary, nil
}

// scan lists the watch folder and returns clip and snapshot names, each
// sorted lexicographically.
func (d *Driver) scan() (clips, snapshots []string, err error) {
	entries, err := filesystem.ReadDirWithRetry(d.config.WatchDir, d.config.FSRetry)
	if err != nil {
		return nil, nil, err
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		switch d.classifier.Classify(entry.Name()) {
		case mediatypes.FileTypeClip:
			clips = append(clips, entry.Name())
		case mediatypes.FileTypeSnapshot:
			snapshots = append(snapshots, entry.Name())
		}
	}

	sort.Strings(clips)
	sort.Strings(snapshots)
	return clips, snapshots, nil
}

func (d *Driver) newWatchedFile(name string) WatchedFile {
	path := filepath.Join(d.config.WatchDir, name)
	file := WatchedFile{
		Name:       name,
		Path:       path,
		OutputPath: d.encoder.OutputPath(path),
		State:      StateUnseen,
	}
	file.Camera, file.Token, _ = ParseToken(name)
	return file
}

// processClip handles a single unprocessed clip. It returns false when the
// context was cancelled and the run should stop.
func (d *Driver) processClip(ctx context.Context, tracker Tracker, file WatchedFile, summary *Summary) bool {
	if !file.Valid() {
		logging.Warn("Skipping %s: no timestamp token in file name", file.Name)
		if err := tracker.MarkProcessed(file.Name); err != nil {
			logging.Error("Failed to record %s as processed: %v", file.Name, err)
		}
		metrics.FilesSkippedTotal.WithLabelValues("malformed").Inc()
		summary.Malformed++
		return true
	}

	// Recorded before the first attempt so a clip is never retried by a
	// later run, whatever happens below.
	if err := tracker.MarkProcessed(file.Name); err != nil {
		logging.Error("Failed to record %s as processed, not converting it: %v", file.Name, err)
		return true
	}
	file.State = StateProcessed

	format := d.encoder.Format()
	converted, err := d.convertWithRetry(ctx, file, format)
	if err != nil {
		logging.Warn("Conversion of %s interrupted: %v", file.Name, err)
		d.discardOutput(file)
		return false
	}

	if !converted {
		summary.Exhausted++
		metrics.ConversionsTotal.WithLabelValues(string(format), "exhausted").Inc()
		d.reportFailure(ctx, file)
		return true
	}

	summary.Converted++
	metrics.ConversionsTotal.WithLabelValues(string(format), "success").Inc()

	if err := d.upload(ctx, file, format); err != nil {
		summary.UploadFailures++
		logging.Error("Upload of %s failed, keeping %s and %s: %v",
			file.Name, file.Name, filepath.Base(file.OutputPath), err)
		return true
	}

	summary.Uploaded++
	logging.Info("Delivered %s", filepath.Base(file.OutputPath))
	d.remove(file.OutputPath, "output")
	d.remove(file.Path, "source")
	return true
}

// convertWithRetry runs the encoder until it succeeds or the attempts are
// used up. An error is returned only when the context ends while waiting.
func (d *Driver) convertWithRetry(ctx context.Context, file WatchedFile, format mediatypes.OutputFormat) (bool, error) {
	maxAttempts := d.config.MaxAttempts

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		logging.Info("Attempt %d/%d to convert %s...", attempt, maxAttempts, file.Name)

		result := d.encoder.Convert(ctx, file.Path, file.OutputPath)
		metrics.ConversionDuration.WithLabelValues(string(format)).Observe(result.Duration.Seconds())

		if result.Success {
			metrics.ConversionAttemptsTotal.WithLabelValues(string(format), "success").Inc()
			logging.Info("Success: %s converted to %s in %s",
				file.Name, format, result.Duration.Round(time.Millisecond))
			return true, nil
		}

		metrics.ConversionAttemptsTotal.WithLabelValues(string(format), "failure").Inc()
		logging.Warn("Conversion of %s failed on attempt %d/%d (exit code %d)",
			file.Name, attempt, maxAttempts, result.ExitCode)
		if result.Diagnostic != "" {
			logging.Debug("ffmpeg output for %s:\n%s", file.Name, result.Diagnostic)
		}

		if attempt == maxAttempts {
			break
		}

		logging.Info("Retrying in %s...", d.config.RetryDelay)
		if err := d.sleep(ctx, d.config.RetryDelay); err != nil {
			return false, err
		}
	}

	return false, nil
}

func (d *Driver) upload(ctx context.Context, file WatchedFile, format mediatypes.OutputFormat) error {
	caption := file.Caption()
	if format == mediatypes.FormatMP4 {
		return d.notifier.SendVideo(ctx, file.OutputPath, caption)
	}
	return d.notifier.SendDocument(ctx, file.OutputPath, caption)
}

// reportFailure alerts the chat that a clip could not be converted. The
// source clip is left in place.
func (d *Driver) reportFailure(ctx context.Context, file WatchedFile) {
	logging.Error("Failed to convert %s after %d attempts. Skipping.", file.Name, d.config.MaxAttempts)
	d.discardOutput(file)

	message := fmt.Sprintf("Failed to convert %s after %d attempts.", file.Name, d.config.MaxAttempts)
	if err := d.notifier.SendMessage(ctx, message); err != nil {
		logging.Error("Failed to send failure alert for %s: %v", file.Name, err)
	}
}

// discardOutput removes whatever a failed conversion left behind.
func (d *Driver) discardOutput(file WatchedFile) {
	err := filesystem.RemoveWithRetry(file.OutputPath, d.config.FSRetry)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn("Failed to remove partial output %s: %v", file.OutputPath, err)
	}
}

func (d *Driver) forwardSnapshot(ctx context.Context, name string, summary *Summary) {
	path := filepath.Join(d.config.WatchDir, name)

	caption := name
	if camera, token, ok := ParseToken(name); ok {
		caption = camera + " " + token
	}

	upload, err := d.prepareSnapshot(path, d.config.SnapshotTempDir, d.config.SnapshotMaxDimension)
	if err != nil {
		logging.Warn("Could not resize snapshot %s, sending it as is: %v", name, err)
		upload = path
	}

	err = d.notifier.SendPhoto(ctx, upload, caption)

	if upload != path {
		if rmErr := os.Remove(upload); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logging.Warn("Failed to remove temporary snapshot %s: %v", upload, rmErr)
		}
	}

	if err != nil {
		summary.SnapshotFailures++
		metrics.SnapshotsTotal.WithLabelValues("error").Inc()
		logging.Error("Failed to send snapshot %s, keeping it for the next run: %v", name, err)
		return
	}

	summary.SnapshotsSent++
	metrics.SnapshotsTotal.WithLabelValues("success").Inc()
	logging.Info("Delivered snapshot %s", name)
	d.remove(path, "snapshot")
}

// remove deletes a delivered file. Failures are logged and otherwise ignored.
func (d *Driver) remove(path, kind string) {
	if err := filesystem.RemoveWithRetry(path, d.config.FSRetry); err != nil {
		metrics.DeletesTotal.WithLabelValues(kind, "error").Inc()
		logging.Error("Failed to delete %s: %v", path, err)
		return
	}
	metrics.DeletesTotal.WithLabelValues(kind, "success").Inc()
	logging.Debug("Deleted %s", path)
}

// GetStats reports the current watch folder backlog for the metrics collector.
func (d *Driver) GetStats() metrics.Stats {
	var stats metrics.Stats

	clips, snapshots, err := d.scan()
	if err != nil {
		logging.Debug("Could not scan %s for stats: %v", d.config.WatchDir, err)
		return stats
	}

	d.trackerMu.Lock()
	tracker := d.tracker
	d.trackerMu.Unlock()

	if tracker != nil {
		stats.ProcessedEntries = tracker.Len()
	}
	for _, name := range clips {
		if tracker == nil || !tracker.IsProcessed(name) {
			stats.PendingClips++
		}
	}
	if d.config.SnapshotsEnabled {
		stats.PendingSnapshots = len(snapshots)
	}
	return stats
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

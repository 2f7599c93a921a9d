package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"clip-relay/internal/logging"
	"clip-relay/internal/metrics"
	"clip-relay/internal/pipeline"

	"github.com/fsnotify/fsnotify"
)

const (
	// Default polling interval for change detection
	defaultPollInterval = 30 * time.Second

	// Quiet period after the last relevant event before a run starts.
	// Camera software writes clips in several chunks.
	defaultDebounce = 2 * time.Second
)

// Runner performs a single pass over the watch folder.
type Runner interface {
	RunOnce(ctx context.Context) (pipeline.Summary, error)
}

// Watcher triggers pipeline runs on folder changes and on a poll interval.
// Runs happen on one goroutine and never overlap.
type Watcher struct {
	runner       Runner
	dir          string
	pollInterval time.Duration
	debounce     time.Duration
	filter       func(name string) bool

	trigger  chan string
	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc

	statusMu    sync.RWMutex
	startTime   time.Time
	isRunning   bool
	lastRunTime time.Time
	lastSummary *pipeline.Summary
	lastError   error
	runsTotal   int64
}

// HealthStatus describes the watcher for health checks
type HealthStatus struct {
	Healthy     bool              `json:"healthy"`
	IsRunning   bool              `json:"isRunning"`
	Uptime      string            `json:"uptime"`
	RunsTotal   int64             `json:"runsTotal"`
	LastRun     time.Time         `json:"lastRun,omitempty"`
	LastError   string            `json:"lastError,omitempty"`
	LastSummary *pipeline.Summary `json:"lastSummary,omitempty"`
}

// New creates a new Watcher for dir.
func New(runner Runner, dir string, pollInterval time.Duration) *Watcher {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Watcher{
		runner:       runner,
		dir:          dir,
		pollInterval: pollInterval,
		debounce:     defaultDebounce,
		trigger:      make(chan string, 1),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// SetDebounce sets the quiet period between a change and the run it triggers.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// SetFilter restricts which file names trigger a run. Without a filter every
// non-hidden file does.
func (w *Watcher) SetFilter(filter func(name string) bool) {
	w.filter = filter
}

// Start runs an initial pass and then keeps watching until Stop is called.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.WatcherErrors.Inc()
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		metrics.WatcherErrors.Inc()
		if closeErr := fsw.Close(); closeErr != nil {
			logging.Warn("failed to close file watcher: %v", closeErr)
		}
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.statusMu.Lock()
	w.startTime = time.Now()
	w.statusMu.Unlock()

	logging.Info("Watching %s (poll every %v)", w.dir, w.pollInterval)
	go w.loop(ctx, fsw)
	return nil
}

// Stop ends the watch loop and waits for an in-flight run to return.
// The run's context is cancelled, so retry waits end early.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		if w.cancel != nil {
			w.cancel()
			<-w.doneChan
		}
	})
}

// Trigger requests a run. Requests made while one is pending are merged.
func (w *Watcher) Trigger() {
	select {
	case w.trigger <- "manual":
	default:
	}
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.doneChan)
	defer func() {
		if err := fsw.Close(); err != nil {
			logging.Error("failed to close file watcher: %v", err)
		}
	}()

	w.runPass(ctx, "startup")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	var debounce *time.Timer
	var debounceC <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	events := fsw.Events
	errs := fsw.Errors

	for {
		select {
		case <-w.stopChan:
			logging.Debug("Watcher stopped")
			return

		case <-ticker.C:
			w.runPass(ctx, "poll")

		case source := <-w.trigger:
			w.runPass(ctx, source)

		case <-debounceC:
			debounceC = nil
			w.runPass(ctx, "fsnotify")

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !w.relevant(event) {
				continue
			}
			logging.Debug("Watcher event: %s %s", getEventType(event.Op), filepath.Base(event.Name))
			if debounce == nil {
				debounce = time.NewTimer(w.debounce)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(w.debounce)
			}
			debounceC = debounce.C

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logging.Error("Watcher error: %v", err)
			metrics.WatcherErrors.Inc()
		}
	}
}

// relevant reports whether an event should lead to a run. Removals and
// permission changes never do, which keeps the pipeline's own deletions
// from re-triggering it.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if w.filter != nil {
		return w.filter(name)
	}
	return true
}

func (w *Watcher) runPass(ctx context.Context, source string) {
	if ctx.Err() != nil {
		return
	}

	metrics.WatchEventsTotal.WithLabelValues(source).Inc()
	logging.Debug("Run triggered by %s", source)

	w.statusMu.Lock()
	w.isRunning = true
	w.statusMu.Unlock()

	summary, err := w.runner.RunOnce(ctx)

	w.statusMu.Lock()
	w.isRunning = false
	w.lastRunTime = time.Now()
	w.lastError = err
	w.runsTotal++
	if err == nil {
		w.lastSummary = &summary
	}
	w.statusMu.Unlock()

	if err != nil {
		logging.Error("Run failed: %v", err)
	}
}

// GetHealthStatus returns the current watcher state.
func (w *Watcher) GetHealthStatus() HealthStatus {
	w.statusMu.RLock()
	defer w.statusMu.RUnlock()

	status := HealthStatus{
		Healthy:   w.lastError == nil,
		IsRunning: w.isRunning,
		RunsTotal: w.runsTotal,
		LastRun:   w.lastRunTime,
	}
	if !w.startTime.IsZero() {
		status.Uptime = time.Since(w.startTime).Round(time.Second).String()
	}
	if w.lastError != nil {
		status.LastError = w.lastError.Error()
	}
	if w.lastSummary != nil {
		summary := *w.lastSummary
		status.LastSummary = &summary
	}
	return status
}

// getEventType returns a string representation of the fsnotify operation
func getEventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}

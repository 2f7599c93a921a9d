package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clip-relay/internal/filesystem"
	"clip-relay/internal/handlers"
	"clip-relay/internal/logging"
	"clip-relay/internal/mediatypes"
	"clip-relay/internal/metrics"
	"clip-relay/internal/notifier"
	"clip-relay/internal/pipeline"
	"clip-relay/internal/startup"
	"clip-relay/internal/transcoder"
	"clip-relay/internal/watcher"
)

// metricsCollectInterval is how often the watch folder backlog gauges refresh.
const metricsCollectInterval = time.Minute

func main() {
	os.Exit(run())
}

func run() int {
	startTime := time.Now()

	// Must happen before the first log line so LOG_LEVEL from the file applies.
	envFile, envErr := startup.LoadEnvFile()

	logFile, err := startup.ResolveLogFile()
	if err != nil {
		logging.Warn("Logging to stderr only: %v", err)
	}
	if logFile != "" {
		if err := logging.SetFile(logFile); err != nil {
			logging.Warn("Logging to stderr only: %v", err)
		}
		defer func() {
			if err := logging.CloseFile(); err != nil {
				logging.Warn("failed to close log file: %v", err)
			}
		}()
	}

	config, err := startup.LoadConfig()
	if err != nil {
		logging.Error("Configuration error: %v", err)
		return 1
	}
	if envErr != nil {
		logging.Error("Configuration error: %v", envErr)
		return 1
	}
	startup.LogConfigFile(envFile)

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics()

	transcoderConfig := config.TranscoderConfig()
	startup.LogTranscoderInit(transcoderConfig)
	trans := transcoder.New(transcoderConfig)

	tg := notifier.New(config.NotifierConfig())

	startup.LogPipelineInit(config)
	driver := pipeline.New(config.PipelineConfig(), trans, tg)

	if config.RunMode == startup.RunModeWatch {
		return runWatch(config, driver, startTime)
	}
	return runOnce(driver)
}

func runOnce(driver *pipeline.Driver) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := driver.RunOnce(ctx); err != nil {
		logging.Error("Run failed: %v", err)
		return 1
	}
	return 0
}

func runWatch(config *startup.Config, driver *pipeline.Driver, startTime time.Time) int {
	w := watcher.New(driver, config.WatchDir, config.PollInterval)
	w.SetFilter(newWatchFilter(config))

	collector := metrics.NewCollector(driver, metricsCollectInterval)
	collector.Start()

	var srv *http.Server
	if config.MetricsEnabled {
		router := handlers.NewRouter(handlers.New(w), false)
		startup.LogHTTPRoutes(router)

		srv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("HTTP server error: %v", err)
			}
		}()
	}

	if err := w.Start(); err != nil {
		logging.Error("Failed to start watcher: %v", err)
		collector.Stop()
		return 1
	}

	startup.LogWatchStarted(startup.ServerConfig{
		WatchDir:        config.WatchDir,
		PollInterval:    config.PollInterval,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	sig := waitForShutdown(w)
	shutdown(sig, w, collector, srv)
	return 0
}

// waitForShutdown blocks until SIGINT or SIGTERM. SIGHUP requests an
// immediate run instead.
func waitForShutdown(w *watcher.Watcher) os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			logging.Info("Received %s, triggering a run", sig)
			w.Trigger()
			continue
		}
		return sig
	}
	return nil
}

func shutdown(sig os.Signal, w *watcher.Watcher, collector *metrics.Collector, srv *http.Server) {
	name := "unknown signal"
	if sig != nil {
		name = sig.String()
	}
	startup.LogShutdownInitiated(name)

	startup.LogShutdownStep("Stopping watcher")
	w.Stop()
	startup.LogShutdownStepComplete("Watcher stopped")

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		startup.LogShutdownStep("Shutting down HTTP server")
		if err := srv.Shutdown(ctx); err != nil {
			logging.Warn("Server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("HTTP server stopped")
		}
	}

	startup.LogShutdownComplete()
}

// newWatchFilter limits watch triggers to clips and, when forwarding is on,
// snapshots. The pipeline's own log, record and output files are ignored.
func newWatchFilter(config *startup.Config) func(name string) bool {
	var snapshotExts []string
	if config.SnapshotsEnabled {
		snapshotExts = config.SnapshotExtensions
	}
	classifier := mediatypes.NewClassifier(config.InputExtension, snapshotExts)

	return func(name string) bool {
		return classifier.Classify(name) != mediatypes.FileTypeOther
	}
}

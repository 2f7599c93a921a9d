package startup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"clip-relay/internal/filesystem"
	"clip-relay/internal/logging"
	"clip-relay/internal/media"
	"clip-relay/internal/mediatypes"
	"clip-relay/internal/notifier"
	"clip-relay/internal/pipeline"
	"clip-relay/internal/transcoder"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Run modes
const (
	RunModeOnce  = "once"
	RunModeWatch = "watch"
)

// defaultEnvFile is read when CONFIG_FILE is not set. It is optional.
const defaultEnvFile = ".env"

const defaultWatchDir = "./alerts"

// Config holds all application configuration
type Config struct {
	// Watch folder
	WatchDir       string
	ProcessedFile  string
	LogFile        string
	InputExtension string
	ProcessAll     bool
	MaxAttempts    int
	RetryDelay     time.Duration

	// Encoder
	FFmpegPath    string
	OutputFormat  mediatypes.OutputFormat
	EncodeTimeout time.Duration
	OutputFPS     int
	OutputWidth   int
	SlowMotion    float64
	StripAudio    bool
	MP4Codec      string
	MP4Preset     string
	MP4CRF        int

	// Snapshots
	SnapshotsEnabled     bool
	SnapshotExtensions   []string
	SnapshotMaxDimension int

	// Telegram
	TelegramToken  string
	TelegramChatID string
	TelegramAPIURL string
	HTTPTimeout    time.Duration

	// Watch mode
	RunMode        string
	PollInterval   time.Duration
	MetricsEnabled bool
	MetricsPort    string
}

// LoadEnvFile loads variables from CONFIG_FILE, or from .env in the working
// directory when CONFIG_FILE is unset. Variables already present in the
// environment win. A missing .env is not an error; a missing CONFIG_FILE is.
// It returns the file that was loaded, or "" when none was.
func LoadEnvFile() (string, error) {
	path := os.Getenv("CONFIG_FILE")
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return path, nil
}

// ResolveLogFile returns the log file named by LOG_FILE, defaulting to
// log.txt in the watch folder, and creates its directory. It returns "" when
// LOG_FILE is "-". Call it before LoadConfig so the banner reaches the file.
func ResolveLogFile() (string, error) {
	watchDir, err := filepath.Abs(getEnv("WATCH_DIR", defaultWatchDir))
	if err != nil {
		return "", fmt.Errorf("failed to resolve watch directory path: %w", err)
	}

	path := logFilePath(watchDir, os.Getenv("LOG_FILE"))
	if path == "" {
		return "", nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	return path, nil
}

func logFilePath(watchDir, logFile string) string {
	switch logFile {
	case "":
		return filepath.Join(watchDir, "log.txt")
	case "-":
		return ""
	default:
		return logFile
	}
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	watchDir := getEnv("WATCH_DIR", defaultWatchDir)
	processedFile := getEnv("PROCESSED_FILE", "")
	logFile := getEnv("LOG_FILE", "")
	inputExt := mediatypes.NormalizeExtension(getEnv("INPUT_EXTENSION", pipeline.DefaultInputExtension))
	outputFormatStr := getEnv("OUTPUT_FORMAT", string(mediatypes.FormatGIF))
	processMode := strings.ToLower(getEnv("PROCESS_MODE", "all"))
	runMode := strings.ToLower(getEnv("RUN_MODE", RunModeOnce))

	defaults := transcoder.DefaultConfig()

	config := &Config{
		InputExtension:       inputExt,
		MaxAttempts:          getEnvInt("MAX_ATTEMPTS", pipeline.DefaultMaxAttempts),
		RetryDelay:           getEnvDuration("RETRY_DELAY", pipeline.DefaultRetryDelay),
		FFmpegPath:           getEnv("FFMPEG_PATH", defaults.FFmpegPath),
		EncodeTimeout:        getEnvDuration("ENCODE_TIMEOUT", defaults.Timeout),
		OutputFPS:            getEnvInt("OUTPUT_FPS", defaults.FPS),
		OutputWidth:          getEnvInt("OUTPUT_WIDTH", defaults.Width),
		SlowMotion:           getEnvFloat("SLOWMO_FACTOR", defaults.SlowMotion),
		StripAudio:           getEnvBool("STRIP_AUDIO", defaults.StripAudio),
		MP4Codec:             getEnv("MP4_CODEC", defaults.Codec),
		MP4Preset:            getEnv("MP4_PRESET", defaults.Preset),
		MP4CRF:               getEnvInt("MP4_CRF", defaults.CRF),
		SnapshotsEnabled:     getEnvBool("SNAPSHOTS_ENABLED", true),
		SnapshotExtensions:   getEnvList("SNAPSHOT_EXTENSIONS", mediatypes.DefaultSnapshotExtensions),
		SnapshotMaxDimension: getEnvInt("SNAPSHOT_MAX_DIMENSION", media.DefaultSnapshotDimension),
		TelegramToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:       getEnv("TELEGRAM_CHAT_ID", ""),
		TelegramAPIURL:       getEnv("TELEGRAM_API_URL", notifier.DefaultBaseURL),
		HTTPTimeout:          getEnvDuration("HTTP_TIMEOUT", notifier.DefaultTimeout),
		PollInterval:         getEnvDuration("POLL_INTERVAL", 30*time.Second),
		MetricsEnabled:       getEnvBool("METRICS_ENABLED", true),
		MetricsPort:          getEnv("METRICS_PORT", "9090"),
	}

	logging.Info("  WATCH_DIR:              %s", watchDir)
	logging.Info("  INPUT_EXTENSION:        %s", inputExt)
	logging.Info("  OUTPUT_FORMAT:          %s", outputFormatStr)
	logging.Info("  PROCESS_MODE:           %s", processMode)
	logging.Info("  MAX_ATTEMPTS:           %d", config.MaxAttempts)
	logging.Info("  RETRY_DELAY:            %s", config.RetryDelay)
	logging.Info("  FFMPEG_PATH:            %s", config.FFmpegPath)
	logging.Info("  ENCODE_TIMEOUT:         %s", config.EncodeTimeout)
	logging.Info("  OUTPUT_FPS:             %d", config.OutputFPS)
	logging.Info("  OUTPUT_WIDTH:           %d", config.OutputWidth)
	logging.Info("  SLOWMO_FACTOR:          %g", config.SlowMotion)
	logging.Info("  SNAPSHOTS_ENABLED:      %v", config.SnapshotsEnabled)
	logging.Info("  SNAPSHOT_EXTENSIONS:    %s", strings.Join(config.SnapshotExtensions, ","))
	logging.Info("  TELEGRAM_API_URL:       %s", config.TelegramAPIURL)
	logging.Info("  TELEGRAM_BOT_TOKEN:     %s", setString(config.TelegramToken))
	logging.Info("  TELEGRAM_CHAT_ID:       %s", setString(config.TelegramChatID))
	logging.Info("  RUN_MODE:               %s", runMode)
	logging.Info("  LOG_LEVEL:              %s", logging.GetLevel())

	format, err := mediatypes.ParseOutputFormat(outputFormatStr)
	if err != nil {
		return nil, err
	}
	config.OutputFormat = format

	switch processMode {
	case "all":
		config.ProcessAll = true
	case "one":
		config.ProcessAll = false
	default:
		logging.Warn("  Invalid PROCESS_MODE %q, using default: all", processMode)
		config.ProcessAll = true
	}

	switch runMode {
	case RunModeOnce, RunModeWatch:
		config.RunMode = runMode
	default:
		return nil, fmt.Errorf("unsupported RUN_MODE %q (want %s or %s)", runMode, RunModeOnce, RunModeWatch)
	}

	if config.MaxAttempts < 1 {
		logging.Warn("  Invalid MAX_ATTEMPTS, using default: %d", pipeline.DefaultMaxAttempts)
		config.MaxAttempts = pipeline.DefaultMaxAttempts
	}
	if config.PollInterval <= 0 {
		logging.Warn("  Invalid POLL_INTERVAL, using default: 30s")
		config.PollInterval = 30 * time.Second
	}

	if config.TelegramToken == "" || config.TelegramChatID == "" {
		logging.Warn("  TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID is empty, deliveries will fail")
	}

	// Resolve paths
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	watchDir, err = filepath.Abs(watchDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch directory path: %w", err)
	}
	logging.Info("  Watch directory (absolute): %s", watchDir)
	config.WatchDir = watchDir

	if err := ensureDirectory(watchDir, "watch"); err != nil {
		return nil, fmt.Errorf("watch directory error: %w", err)
	}

	if processedFile == "" {
		processedFile = filepath.Join(watchDir, "processed.txt")
	}
	config.ProcessedFile = processedFile
	logging.Info("  Processed record: %s", processedFile)

	config.LogFile = logFilePath(watchDir, logFile)
	if config.LogFile != "" {
		logging.Info("  Log file:         %s", config.LogFile)
	} else {
		logging.Info("  Log file:         DISABLED")
	}

	return config, nil
}

// PipelineConfig returns the driver settings.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		WatchDir:             c.WatchDir,
		ProcessedFile:        c.ProcessedFile,
		InputExtension:       c.InputExtension,
		ProcessAll:           c.ProcessAll,
		MaxAttempts:          c.MaxAttempts,
		RetryDelay:           c.RetryDelay,
		SnapshotsEnabled:     c.SnapshotsEnabled,
		SnapshotExtensions:   c.SnapshotExtensions,
		SnapshotMaxDimension: c.SnapshotMaxDimension,
		FSRetry:              filesystem.DefaultRetryConfig(),
	}
}

// TranscoderConfig returns the encoder settings.
func (c *Config) TranscoderConfig() transcoder.Config {
	return transcoder.Config{
		FFmpegPath: c.FFmpegPath,
		Format:     c.OutputFormat,
		FPS:        c.OutputFPS,
		Width:      c.OutputWidth,
		SlowMotion: c.SlowMotion,
		StripAudio: c.StripAudio,
		Codec:      c.MP4Codec,
		Preset:     c.MP4Preset,
		CRF:        c.MP4CRF,
		Timeout:    c.EncodeTimeout,
		FSRetry:    filesystem.DefaultRetryConfig(),
	}
}

// NotifierConfig returns the Telegram client settings.
func (c *Config) NotifierConfig() notifier.Config {
	return notifier.Config{
		Token:   c.TelegramToken,
		ChatID:  c.TelegramChatID,
		BaseURL: c.TelegramAPIURL,
		Timeout: c.HTTPTimeout,
	}
}

func setString(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "(set)"
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogConfigFile logs which env file, if any, was loaded
func LogConfigFile(path string) {
	if path == "" {
		logging.Debug("No config file loaded, using environment only")
		return
	}
	logging.Info("Loaded configuration from %s", path)
}

// LogTranscoderInit logs transcoder initialization and checks FFmpeg
func LogTranscoderInit(config transcoder.Config) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("TRANSCODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Output format:  %s", config.Format)
	logging.Info("  Frame rate:     %d fps", config.FPS)
	logging.Info("  Width:          %d px", config.Width)
	if config.Format == mediatypes.FormatMP4 {
		logging.Info("  Codec:          %s (preset %s, crf %d)", config.Codec, config.Preset, config.CRF)
	}

	if err := checkFFmpeg(config.FFmpegPath); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Every conversion will fail until FFmpeg is installed")
	} else {
		logging.Info("  [OK] FFmpeg is available")
	}
}

// LogPipelineInit logs the pipeline settings
func LogPipelineInit(config *Config) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("PIPELINE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	if config.ProcessAll {
		logging.Info("  Clips per run:  all")
	} else {
		logging.Info("  Clips per run:  one")
	}
	logging.Info("  Attempts:       %d, %s apart", config.MaxAttempts, config.RetryDelay)
	logging.Info("  Snapshots:      %s", enabledString(config.SnapshotsEnabled))
	if config.SnapshotsEnabled {
		logging.Info("    Max dimension: %d px", config.SnapshotMaxDimension)
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the routes of the health and metrics server
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}

	logging.Debug("  Registered routes (%d total):", len(routes))
	for _, route := range routes {
		logging.Debug("    %-6s %s", route.Method, route.Path)
	}
}

// ServerConfig holds configuration for the watch mode startup log
type ServerConfig struct {
	WatchDir        string
	PollInterval    time.Duration
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogWatchStarted logs the start of watch mode with endpoint information
func LogWatchStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("WATCH MODE STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  Watching:        %s", config.WatchDir)
	logging.Info("  Poll interval:   %v", config.PollInterval)
	logging.Info("")
	if config.MetricsEnabled {
		logging.Info("  Endpoints:")
		logging.Info("    Health:        http://0.0.0.0:%s/healthz", config.MetricsPort)
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Endpoints:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
      _ _                     _
  ___| (_)_ __    _ __ ___| | __ _ _   _
 / __| | | '_ \  | '__/ _ \ |/ _' | | | |
| (__| | | |_) | | | |  __/ | (_| | |_| |
 \___|_|_| .__/  |_|  \___|_|\__,_|\__, |
         |_|                       |___/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			logging.Debug("    Contents: %d entries", len(entries))
		}
	}

	return nil
}

func checkFFmpeg(ffmpegPath string) error {
	path, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", ffmpegPath)
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	if first, _, _ := strings.Cut(string(output), "\n"); first != "" {
		logging.Debug("  FFmpeg version: %s", strings.TrimSpace(first))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		logging.Warn("Invalid number for %s: %q, using default: %g", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvDuration accepts Go durations ("3s", "5m") and bare numbers, which
// are read as seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration for %s: %q, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvList splits a comma-separated value into normalized extensions.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if ext := mediatypes.NormalizeExtension(part); ext != "" {
			out = append(out, ext)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

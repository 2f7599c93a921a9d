// Package startup handles configuration loading and startup/shutdown logging.
//
// # Configuration
//
// [LoadEnvFile] first merges variables from CONFIG_FILE (or an optional .env
// in the working directory) into the environment; variables that are already
// set are left alone. [LoadConfig] then reads the environment:
//
//   - WATCH_DIR: Folder the camera software writes alerts to (default: ./alerts)
//   - PROCESSED_FILE: Processed record (default: <WATCH_DIR>/processed.txt)
//   - LOG_FILE: Log file, "-" disables it (default: <WATCH_DIR>/log.txt)
//   - INPUT_EXTENSION: Clip extension (default: .avi)
//   - OUTPUT_FORMAT: gif or mp4 (default: gif)
//   - PROCESS_MODE: all or one clip per run (default: all)
//   - MAX_ATTEMPTS / RETRY_DELAY: Conversion retry policy (default: 20 / 3s)
//   - FFMPEG_PATH, ENCODE_TIMEOUT, OUTPUT_FPS, OUTPUT_WIDTH, SLOWMO_FACTOR,
//     STRIP_AUDIO, MP4_CODEC, MP4_PRESET, MP4_CRF: Encoder profile
//   - SNAPSHOTS_ENABLED, SNAPSHOT_EXTENSIONS, SNAPSHOT_MAX_DIMENSION: Snapshot forwarding
//   - TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID, TELEGRAM_API_URL, HTTP_TIMEOUT: Delivery
//   - RUN_MODE: once or watch (default: once)
//   - POLL_INTERVAL: Watch mode rescan interval (default: 30s)
//   - METRICS_ENABLED / METRICS_PORT: Watch mode health and metrics server (default: true / 9090)
//   - LOG_LEVEL / DEBUG: Logging level
//
// Durations accept Go syntax ("3s", "5m") or a bare number of seconds.
//
// The watch directory is created if missing; failure to do so is fatal.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//   - [LogTranscoderInit]: Encoder profile and FFmpeg availability
//   - [LogPipelineInit]: Retry policy and snapshot settings
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogWatchStarted]: Watch mode endpoints and startup duration
//   - [LogShutdownInitiated] / [LogShutdownComplete]: Graceful shutdown
package startup

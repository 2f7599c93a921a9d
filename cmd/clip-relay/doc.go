// Package main provides the entry point for clip-relay.
//
// clip-relay watches the folder a security camera drops motion clips into,
// converts each new clip to an animated GIF or MP4 with FFmpeg, and posts the
// result to a Telegram chat. Still snapshots saved next to the clips are
// forwarded as photos.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Reads CONFIG_FILE (or .env) and the environment
//  2. Log File: Mirrors log output to LOG_FILE, log.txt in the watch folder by default
//  3. Component Initialization:
//     - Transcoder: FFmpeg command builder and runner
//     - Notifier: Telegram Bot API client
//     - Pipeline: Scans the folder, converts, uploads and cleans up
//  4. Run Mode:
//     - once: a single pass, then exit (suited to cron or a systemd timer)
//     - watch: fsnotify plus polling, with health and metrics over HTTP
//  5. Graceful Shutdown: SIGINT/SIGTERM cancel the in-flight run and stop all components
//
// # Signals
//
//   - SIGINT, SIGTERM: shut down
//   - SIGHUP: start a run immediately (watch mode)
//
// # Exit Status
//
// A pass exits non-zero only when the watch folder or the processed record
// cannot be read. Conversion and upload failures are logged, and an alert is
// sent to the chat when a clip exhausts its attempts.
package main

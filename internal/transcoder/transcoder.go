package transcoder

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clip-relay/internal/filesystem"
	"clip-relay/internal/logging"
	"clip-relay/internal/mediatypes"
)

// maxDiagnosticBytes caps how much FFmpeg output is kept per attempt.
const maxDiagnosticBytes = 4096

// Config holds the fixed encoding parameters.
type Config struct {
	FFmpegPath string
	Format     mediatypes.OutputFormat
	FPS        int
	Width      int
	// SlowMotion multiplies presentation timestamps; 1 or less disables it.
	SlowMotion float64
	// StripAudio drops the audio track (MP4 only, GIF has none).
	StripAudio bool
	Codec      string
	Preset     string
	CRF        int
	// Timeout bounds a single FFmpeg invocation; zero means no limit.
	Timeout time.Duration
	// FSRetry governs the output check on network shares.
	FSRetry filesystem.RetryConfig
}

// DefaultConfig returns the GIF profile used by the original alert folder setup.
func DefaultConfig() Config {
	return Config{
		FFmpegPath: "ffmpeg",
		Format:     mediatypes.FormatGIF,
		FPS:        10,
		Width:      480,
		SlowMotion: 1,
		StripAudio: true,
		Codec:      "libx264",
		Preset:     "veryfast",
		CRF:        28,
		Timeout:    5 * time.Minute,
		FSRetry:    filesystem.DefaultRetryConfig(),
	}
}

// Result is the outcome of one conversion attempt.
type Result struct {
	Success    bool
	Diagnostic string
	ExitCode   int
	Duration   time.Duration
}

// runFunc executes a command and returns its combined output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Transcoder runs FFmpeg conversions.
type Transcoder struct {
	config Config
	run    runFunc
}

// New creates a new Transcoder instance.
func New(config Config) *Transcoder {
	if config.FFmpegPath == "" {
		config.FFmpegPath = "ffmpeg"
	}
	if config.Format == "" {
		config.Format = mediatypes.FormatGIF
	}
	return &Transcoder{
		config: config,
		run:    execRun,
	}
}

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Format returns the output format this transcoder produces.
func (t *Transcoder) Format() mediatypes.OutputFormat {
	return t.config.Format
}

// OutputPath derives the output file path for an input clip.
func (t *Transcoder) OutputPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + t.config.Format.Extension()
}

// FilterChain returns the -vf argument for the configured profile.
func (t *Transcoder) FilterChain() string {
	filters := make([]string, 0, 3)
	if t.config.FPS > 0 {
		filters = append(filters, fmt.Sprintf("fps=%d", t.config.FPS))
	}
	if t.config.SlowMotion > 1 {
		filters = append(filters, fmt.Sprintf("setpts=%s*PTS", strconv.FormatFloat(t.config.SlowMotion, 'f', -1, 64)))
	}
	if t.config.Width > 0 {
		// H.264 needs even dimensions, so MP4 rounds the height to a multiple of two
		height := "-1"
		if t.config.Format == mediatypes.FormatMP4 {
			height = "-2"
		}
		filters = append(filters, fmt.Sprintf("scale=%d:%s:flags=lanczos", t.config.Width, height))
	}
	return strings.Join(filters, ",")
}

// BuildArgs returns the FFmpeg argument list for a conversion.
func (t *Transcoder) BuildArgs(inputPath, outputPath string) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", inputPath}

	if chain := t.FilterChain(); chain != "" {
		args = append(args, "-vf", chain)
	}

	if t.config.Format == mediatypes.FormatMP4 {
		if t.config.StripAudio {
			args = append(args, "-an")
		}
		if t.config.Codec != "" {
			args = append(args, "-c:v", t.config.Codec)
		}
		if t.config.Preset != "" {
			args = append(args, "-preset", t.config.Preset)
		}
		if t.config.CRF > 0 {
			args = append(args, "-crf", strconv.Itoa(t.config.CRF))
		}
		args = append(args, "-pix_fmt", "yuv420p", "-movflags", "+faststart")
	}

	return append(args, outputPath)
}

// Convert runs one conversion attempt. It never panics and never returns an
// error: every failure is reported through Result.
func (t *Transcoder) Convert(ctx context.Context, inputPath, outputPath string) Result {
	start := time.Now()

	if t.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Timeout)
		defer cancel()
	}

	args := t.BuildArgs(inputPath, outputPath)
	logging.Debug("Running %s %s", t.config.FFmpegPath, strings.Join(args, " "))

	output, err := t.run(ctx, t.config.FFmpegPath, args...)
	result := Result{
		Diagnostic: tail(string(output), maxDiagnosticBytes),
		Duration:   time.Since(start),
	}

	if err != nil {
		result.ExitCode = exitCode(err)
		if ctx.Err() != nil {
			result.Diagnostic = strings.TrimSpace(fmt.Sprintf("%v: %s", ctx.Err(), result.Diagnostic))
		} else if result.Diagnostic == "" {
			result.Diagnostic = err.Error()
		}
		return result
	}

	info, statErr := filesystem.StatWithRetry(outputPath, t.config.FSRetry)
	if statErr != nil || info.Size() == 0 {
		result.Diagnostic = strings.TrimSpace("ffmpeg exited 0 but produced no output\n" + result.Diagnostic)
		return result
	}

	result.Success = true
	return result
}

// exitCode extracts the process exit status, or -1 when the process never ran
// or was killed.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

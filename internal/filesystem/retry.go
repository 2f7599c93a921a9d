// Package filesystem provides utilities for filesystem operations with retry logic for network shares
package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"clip-relay/internal/logging"
)

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for network share retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isStaleError checks if an error is a stale file handle error
func isStaleError(err error) bool {
	if err == nil {
		return false
	}

	// Check for ESTALE (stale file handle) - errno 116 on Linux
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}

	return false
}

// withRetry runs fn until it succeeds, fails with a non-stale error, or
// config.MaxRetries retries have been spent.
func withRetry(operation, path string, config RetryConfig, fn func() error) error {
	start := time.Now()
	obs := observe()
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("%s succeeded on retry %d for %s", operation, attempt, path)
				obs.ObserveRetrySuccess(operation)
			}
			obs.ObserveDuration(operation, time.Since(start).Seconds())
			return nil
		}

		lastErr = err

		// Only retry on stale file handle errors
		if !isStaleError(err) {
			obs.ObserveDuration(operation, time.Since(start).Seconds())
			return err
		}

		obs.ObserveStaleError(operation)

		// Don't sleep after the last attempt
		if attempt < config.MaxRetries {
			obs.ObserveRetryAttempt(operation)
			logging.Debug("%s stale file handle for %s, retrying in %v (attempt %d/%d)",
				operation, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			// Exponential backoff with cap
			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("%s failed after %d retries for %s: %v", operation, config.MaxRetries, path, lastErr)
	obs.ObserveRetryFailure(operation)
	obs.ObserveDuration(operation, time.Since(start).Seconds())
	return lastErr
}

// StatWithRetry performs os.Stat with retry logic for stale file handle errors
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	var info os.FileInfo
	err := withRetry("stat", path, config, func() error {
		var statErr error
		info, statErr = os.Stat(path)
		return statErr
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// ReadDirWithRetry performs os.ReadDir with retry logic for stale file handle errors
func ReadDirWithRetry(path string, config RetryConfig) ([]os.DirEntry, error) {
	var entries []os.DirEntry
	err := withRetry("readdir", path, config, func() error {
		var readErr error
		entries, readErr = os.ReadDir(path)
		return readErr
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// RemoveWithRetry performs os.Remove with retry logic for stale file handle errors.
// A file that is already gone after a stale retry counts as removed.
func RemoveWithRetry(path string, config RetryConfig) error {
	retried := false
	return withRetry("remove", path, config, func() error {
		err := os.Remove(path)
		if err != nil && retried && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if isStaleError(err) {
			retried = true
		}
		return err
	})
}

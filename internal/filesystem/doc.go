/*
Package filesystem provides resilient filesystem operations with automatic retry logic
for stale file handle errors.

# Purpose

Camera software commonly writes alert clips to a network share (NFS or an SMB
mount). This package wraps os.Stat, os.ReadDir and os.Remove with retry logic
for transient ESTALE (stale file handle) errors that occur when the share is
remounted or the server rotates handles while clip-relay is scanning or
cleaning up the watch folder.

# Usage

	entries, err := filesystem.ReadDirWithRetry(watchDir, filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}

	if err := filesystem.RemoveWithRetry(clipPath, filesystem.DefaultRetryConfig()); err != nil {
	    logging.Warn("failed to delete %s: %v", clipPath, err)
	}

# Retry Behavior

The retry logic implements exponential backoff with the following defaults:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

Only ESTALE triggers retries. All other errors fail immediately.

# Metrics

Operations report through the package-level [Observer] set with
[SetObserver]. The metrics package provides the Prometheus implementation.
Without an observer nothing is recorded, which keeps tests free of global
state.
*/
package filesystem

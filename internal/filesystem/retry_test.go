package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
}

func TestIsStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "ESTALE error", err: syscall.ESTALE, want: true},
		{name: "wrapped ESTALE", err: &os.PathError{Op: "remove", Path: "/x", Err: syscall.ESTALE}, want: true},
		{name: "ENOENT error", err: syscall.ENOENT, want: false},
		{name: "generic error", err: os.ErrNotExist, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isStaleError(tt.err)
			if got != tt.want {
				t.Errorf("isStaleError() = %v, want %v", got, tt.want)
			}
		})
	}
}

type countingObserver struct {
	attempts, successes, failures, stale, durations int
}

func (c *countingObserver) ObserveDuration(string, float64) { c.durations++ }
func (c *countingObserver) ObserveRetryAttempt(string)      { c.attempts++ }
func (c *countingObserver) ObserveRetrySuccess(string)      { c.successes++ }
func (c *countingObserver) ObserveRetryFailure(string)      { c.failures++ }
func (c *countingObserver) ObserveStaleError(string)        { c.stale++ }

func withObserver(t *testing.T) *countingObserver {
	t.Helper()
	obs := &countingObserver{}
	SetObserver(obs)
	t.Cleanup(func() { SetObserver(nil) })
	return obs
}

func TestWithRetry_SucceedsAfterStale(t *testing.T) {
	obs := withObserver(t)
	calls := 0

	err := withRetry("remove", "/share/clip.avi", fastRetryConfig(), func() error {
		calls++
		if calls < 3 {
			return syscall.ESTALE
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withRetry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if obs.stale != 2 || obs.attempts != 2 || obs.successes != 1 {
		t.Errorf("observer = %+v, want stale=2 attempts=2 successes=1", *obs)
	}
	if obs.durations != 1 {
		t.Errorf("durations = %d, want 1", obs.durations)
	}
}

func TestWithRetry_GivesUp(t *testing.T) {
	obs := withObserver(t)
	calls := 0

	err := withRetry("stat", "/share/clip.avi", fastRetryConfig(), func() error {
		calls++
		return syscall.ESTALE
	})
	if !errors.Is(err, syscall.ESTALE) {
		t.Fatalf("withRetry() error = %v, want ESTALE", err)
	}
	// One initial attempt plus MaxRetries retries
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
	if obs.failures != 1 {
		t.Errorf("failures = %d, want 1", obs.failures)
	}
	if obs.attempts != 3 {
		t.Errorf("attempts = %d, want 3", obs.attempts)
	}
}

func TestWithRetry_NonStaleFailsImmediately(t *testing.T) {
	calls := 0
	wantErr := errors.New("permission denied")

	err := withRetry("remove", "/x", fastRetryConfig(), func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("withRetry() error = %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_NoObserver(t *testing.T) {
	SetObserver(nil)

	err := withRetry("stat", "/x", fastRetryConfig(), func() error { return nil })
	if err != nil {
		t.Errorf("withRetry() error = %v", err)
	}
}

func TestStatWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.avi")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := StatWithRetry(path, fastRetryConfig())
	if err != nil {
		t.Fatalf("StatWithRetry() error = %v", err)
	}
	if info.Size() != 4 {
		t.Errorf("Size() = %d, want 4", info.Size())
	}

	if _, err := StatWithRetry(filepath.Join(dir, "missing.avi"), fastRetryConfig()); !os.IsNotExist(err) {
		t.Errorf("StatWithRetry(missing) error = %v, want not-exist", err)
	}
}

func TestReadDirWithRetry(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.avi", "a.avi"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := ReadDirWithRetry(dir, fastRetryConfig())
	if err != nil {
		t.Fatalf("ReadDirWithRetry() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	// os.ReadDir returns entries sorted by filename
	if entries[0].Name() != "a.avi" {
		t.Errorf("entries[0] = %q, want a.avi", entries[0].Name())
	}

	if _, err := ReadDirWithRetry(filepath.Join(dir, "nope"), fastRetryConfig()); err == nil {
		t.Error("ReadDirWithRetry(missing) expected error")
	}
}

func TestRemoveWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.gif")
	if err := os.WriteFile(path, []byte("gif"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RemoveWithRetry(path, fastRetryConfig()); err != nil {
		t.Fatalf("RemoveWithRetry() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still exists after RemoveWithRetry")
	}

	if err := RemoveWithRetry(path, fastRetryConfig()); !os.IsNotExist(err) {
		t.Errorf("RemoveWithRetry(missing) error = %v, want not-exist", err)
	}
}

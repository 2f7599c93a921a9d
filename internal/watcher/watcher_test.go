package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"clip-relay/internal/pipeline"

	"github.com/fsnotify/fsnotify"
)

type fakeRunner struct {
	mu      sync.Mutex
	runs    int
	err     error
	block   time.Duration
	active  atomic.Int32
	overlap atomic.Bool
	ran     chan struct{}
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{ran: make(chan struct{}, 100)}
}

func (r *fakeRunner) RunOnce(ctx context.Context) (pipeline.Summary, error) {
	if r.active.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer r.active.Add(-1)

	if r.block > 0 {
		select {
		case <-time.After(r.block):
		case <-ctx.Done():
		}
	}

	r.mu.Lock()
	r.runs++
	n := r.runs
	err := r.err
	r.mu.Unlock()

	select {
	case r.ran <- struct{}{}:
	default:
	}
	return pipeline.Summary{Scanned: n}, err
}

func (r *fakeRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func waitForRuns(t *testing.T, r *fakeRunner, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for r.count() < n {
		select {
		case <-r.ran:
		case <-deadline:
			t.Fatalf("timed out waiting for %d runs, got %d", n, r.count())
		}
	}
}

func TestWatcher_RunsOnStart(t *testing.T) {
	runner := newFakeRunner()
	w := New(runner, t.TempDir(), time.Hour)

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	waitForRuns(t, runner, 1, 5*time.Second)
}

func TestWatcher_StartMissingDirectory(t *testing.T) {
	w := New(newFakeRunner(), filepath.Join(t.TempDir(), "missing"), time.Hour)
	if err := w.Start(); err == nil {
		w.Stop()
		t.Fatal("Start() expected error for missing directory")
	}
	// Stop after a failed Start must not block.
	w.Stop()
}

func TestWatcher_PollTriggersRuns(t *testing.T) {
	runner := newFakeRunner()
	w := New(runner, t.TempDir(), 20*time.Millisecond)

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	waitForRuns(t, runner, 3, 5*time.Second)
}

func TestWatcher_FileEventTriggersRun(t *testing.T) {
	dir := t.TempDir()
	runner := newFakeRunner()
	w := New(runner, dir, time.Hour)
	w.SetDebounce(20 * time.Millisecond)
	w.SetFilter(func(name string) bool { return strings.HasSuffix(name, ".avi") })

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()
	waitForRuns(t, runner, 1, 5*time.Second)

	if err := os.WriteFile(filepath.Join(dir, "Cam.1.avi"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitForRuns(t, runner, 2, 5*time.Second)
}

func TestWatcher_FilteredEventsDoNotTrigger(t *testing.T) {
	dir := t.TempDir()
	runner := newFakeRunner()
	w := New(runner, dir, time.Hour)
	w.SetDebounce(10 * time.Millisecond)
	w.SetFilter(func(name string) bool { return strings.HasSuffix(name, ".avi") })

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()
	waitForRuns(t, runner, 1, 5*time.Second)

	for _, name := range []string{"log.txt", "processed.txt", ".hidden.avi"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	time.Sleep(200 * time.Millisecond)
	if n := runner.count(); n != 1 {
		t.Errorf("runs = %d, want 1 (filtered files must not trigger)", n)
	}
}

func TestWatcher_RunsDoNotOverlap(t *testing.T) {
	runner := newFakeRunner()
	runner.block = 30 * time.Millisecond
	w := New(runner, t.TempDir(), 5*time.Millisecond)

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		w.Trigger()
	}

	waitForRuns(t, runner, 4, 5*time.Second)
	w.Stop()

	if runner.overlap.Load() {
		t.Error("runs overlapped")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	runner := newFakeRunner()
	w := New(runner, t.TempDir(), time.Hour)
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitForRuns(t, runner, 1, 5*time.Second)

	w.Stop()
	w.Stop()

	before := runner.count()
	w.Trigger()
	time.Sleep(50 * time.Millisecond)
	if runner.count() != before {
		t.Error("no runs expected after Stop")
	}
}

func TestWatcher_StopCancelsRun(t *testing.T) {
	runner := newFakeRunner()
	runner.block = time.Hour
	w := New(runner, t.TempDir(), time.Hour)
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not cancel the in-flight run")
	}
}

func TestWatcher_HealthStatus(t *testing.T) {
	runner := newFakeRunner()
	w := New(runner, t.TempDir(), time.Hour)

	status := w.GetHealthStatus()
	if !status.Healthy || status.RunsTotal != 0 || status.LastSummary != nil {
		t.Errorf("initial status = %+v", status)
	}

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()
	waitForRuns(t, runner, 1, 5*time.Second)

	waitForStatus(t, w, func(s HealthStatus) bool { return s.RunsTotal == 1 })
	status = w.GetHealthStatus()
	if !status.Healthy || status.LastSummary == nil || status.LastSummary.Scanned != 1 {
		t.Errorf("status after run = %+v", status)
	}
	if status.LastRun.IsZero() {
		t.Error("LastRun should be set")
	}

	runner.mu.Lock()
	runner.err = errors.New("watch folder vanished")
	runner.mu.Unlock()
	w.Trigger()
	waitForRuns(t, runner, 2, 5*time.Second)

	waitForStatus(t, w, func(s HealthStatus) bool { return s.RunsTotal == 2 })
	status = w.GetHealthStatus()
	if status.Healthy {
		t.Error("status should be unhealthy after a failed run")
	}
	if status.LastError != "watch folder vanished" {
		t.Errorf("LastError = %q", status.LastError)
	}
}

func waitForStatus(t *testing.T, w *Watcher, cond func(HealthStatus) bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond(w.GetHealthStatus()) {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for status, last = %+v", w.GetHealthStatus())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRelevant(t *testing.T) {
	w := New(newFakeRunner(), "/watch", time.Hour)
	w.SetFilter(func(name string) bool { return strings.HasSuffix(name, ".avi") })

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"create clip", fsnotify.Event{Name: "/watch/Cam.1.avi", Op: fsnotify.Create}, true},
		{"write clip", fsnotify.Event{Name: "/watch/Cam.1.avi", Op: fsnotify.Write}, true},
		{"rename clip", fsnotify.Event{Name: "/watch/Cam.1.avi", Op: fsnotify.Rename}, true},
		{"remove clip", fsnotify.Event{Name: "/watch/Cam.1.avi", Op: fsnotify.Remove}, false},
		{"chmod clip", fsnotify.Event{Name: "/watch/Cam.1.avi", Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: "/watch/log.txt", Op: fsnotify.Write}, false},
		{"hidden clip", fsnotify.Event{Name: "/watch/.Cam.1.avi", Op: fsnotify.Create}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.relevant(tt.event); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestGetEventType(t *testing.T) {
	if got := getEventType(fsnotify.Create); got != "create" {
		t.Errorf("getEventType(Create) = %q", got)
	}
	if got := getEventType(fsnotify.Remove); got != "remove" {
		t.Errorf("getEventType(Remove) = %q", got)
	}
}

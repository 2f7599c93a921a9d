package processed

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Record is the processed-set tracker backed by a flat file.
type Record struct {
	path  string
	mu    sync.Mutex
	names map[string]struct{}
}

// Open loads the record at path. A missing file is an empty record; it is
// created on the first MarkProcessed.
func Open(path string) (*Record, error) {
	r := &Record{
		path:  path,
		names: make(map[string]struct{}),
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to open processed record: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name != "" {
			r.names[name] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read processed record: %w", err)
	}

	return r, nil
}

// IsProcessed reports whether name has already been recorded.
func (r *Record) IsProcessed(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.names[name]
	return ok
}

// MarkProcessed appends name to the record. Marking a name that is already
// present is a no-op.
func (r *Record) MarkProcessed(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.names[name]; ok {
		return nil
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open processed record for append: %w", err)
	}

	if _, err := f.WriteString(name + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append to processed record: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close processed record: %w", err)
	}

	r.names[name] = struct{}{}
	return nil
}

// Len returns the number of distinct names in the record.
func (r *Record) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.names)
}

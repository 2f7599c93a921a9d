package pipeline

import (
	"fmt"
	"time"
)

// Summary counts what happened during one run.
type Summary struct {
	Scanned          int
	Skipped          int
	Malformed        int
	Converted        int
	Uploaded         int
	UploadFailures   int
	Exhausted        int
	SnapshotsSent    int
	SnapshotFailures int
	Interrupted      bool
	Duration         time.Duration
}

// Attempted is the number of clips a conversion was started for.
func (s Summary) Attempted() int {
	return s.Converted + s.Exhausted
}

func (s Summary) String() string {
	return fmt.Sprintf(
		"scanned=%d skipped=%d malformed=%d attempted=%d converted=%d uploaded=%d upload_failures=%d exhausted=%d snapshots_sent=%d snapshot_failures=%d duration=%s",
		s.Scanned, s.Skipped, s.Malformed, s.Attempted(), s.Converted, s.Uploaded, s.UploadFailures,
		s.Exhausted, s.SnapshotsSent, s.SnapshotFailures, s.Duration.Round(time.Millisecond),
	)
}

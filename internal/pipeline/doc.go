// Package pipeline implements a single pass over the alert watch folder.
//
// A pass lists clips with the configured input extension in lexicographic
// order and skips any name already in the processed record. Each remaining
// clip is recorded as processed before it is converted, so a clip that
// fails (or a run that crashes mid-conversion) is never picked up again.
// Conversion is retried up to Config.MaxAttempts times with Config.RetryDelay
// between attempts. A converted clip is uploaded and, once the upload
// succeeds, both the clip and its output are removed. A clip that never
// converts produces a failure alert and stays in the folder.
//
// When snapshot forwarding is enabled the pass then sends every still image
// in the folder as a photo and removes the ones that were delivered.
//
// Only failures to open the watch folder or the processed record are returned
// from [Driver.RunOnce]; everything else ends up in the log and the [Summary].
package pipeline

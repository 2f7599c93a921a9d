// Package watcher keeps clip-relay running against the watch folder.
//
// A [Watcher] runs one pipeline pass on start, then another whenever a
// matching file is created, written or renamed into the folder (after a short
// quiet period) and on every poll tick. The poll covers network shares where
// change notifications are unreliable. Passes run on a single goroutine, so
// two passes never overlap.
//
// [Watcher.GetHealthStatus] exposes the outcome of the most recent pass for
// the health endpoint.
package watcher

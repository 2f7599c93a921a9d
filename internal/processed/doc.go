// Package processed keeps the append-only record of clip names that have
// already been attempted.
//
// The record is a flat text file with one filename per line. It is read in
// full when opened and only ever appended to afterwards; it is never
// rewritten or compacted. Duplicate lines are harmless because membership is
// a set lookup.
package processed

// Package mediatypes provides shared type definitions for the files clip-relay
// finds in its watch folder and the formats it produces.
//
// It has no dependencies beyond the standard library so that every other
// package can import it without creating cycles.
//
// # Classification
//
//	c := mediatypes.NewClassifier(".avi", mediatypes.DefaultSnapshotExtensions)
//	switch c.Classify(name) {
//	case mediatypes.FileTypeClip:
//	    // convert and upload
//	case mediatypes.FileTypeSnapshot:
//	    // forward as photo
//	}
//
// # Output Formats
//
// [OutputFormat] is either [FormatGIF] or [FormatMP4]; [ParseOutputFormat]
// accepts the values of the OUTPUT_FORMAT environment variable.
package mediatypes

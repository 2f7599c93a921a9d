package mediatypes

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileType represents the role of a file found in the watch folder.
type FileType string

const (
	// FileTypeClip represents a motion clip waiting for conversion.
	FileTypeClip FileType = "clip"
	// FileTypeSnapshot represents a still image to be forwarded as a photo.
	FileTypeSnapshot FileType = "snapshot"
	// FileTypeOther represents anything clip-relay does not touch.
	FileTypeOther FileType = "other"
)

// OutputFormat is the container a clip is converted into.
type OutputFormat string

const (
	// FormatGIF produces an animated GIF, delivered as a document.
	FormatGIF OutputFormat = "gif"
	// FormatMP4 produces an H.264 MP4, delivered as a video.
	FormatMP4 OutputFormat = "mp4"
)

// ParseOutputFormat parses a format name such as "gif" or ".MP4".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "gif":
		return FormatGIF, nil
	case "mp4":
		return FormatMP4, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want gif or mp4)", s)
	}
}

// Extension returns the file extension for the format, including the dot.
func (f OutputFormat) Extension() string {
	return "." + string(f)
}

// DefaultSnapshotExtensions are the still image formats forwarded by default.
var DefaultSnapshotExtensions = []string{".jpg", ".jpeg"}

// NormalizeExtension lowercases ext and makes sure it starts with a dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Classifier decides the FileType of watch folder entries.
type Classifier struct {
	clipExt      string
	snapshotExts map[string]bool
}

// NewClassifier creates a classifier for the given clip extension and
// snapshot extensions. Extensions are normalized, so "AVI" and ".avi" are equal.
func NewClassifier(clipExt string, snapshotExts []string) *Classifier {
	c := &Classifier{
		clipExt:      NormalizeExtension(clipExt),
		snapshotExts: make(map[string]bool, len(snapshotExts)),
	}
	for _, ext := range snapshotExts {
		if n := NormalizeExtension(ext); n != "" {
			c.snapshotExts[n] = true
		}
	}
	return c
}

// Classify returns the FileType for a filename. Matching is case-insensitive.
func (c *Classifier) Classify(name string) FileType {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == "":
		return FileTypeOther
	case ext == c.clipExt:
		return FileTypeClip
	case c.snapshotExts[ext]:
		return FileTypeSnapshot
	default:
		return FileTypeOther
	}
}

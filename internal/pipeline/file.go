package pipeline

import "strings"

// FileState is the processing state of a clip as seen by one scan.
type FileState string

const (
	// StateUnseen means the clip is not in the processed record.
	StateUnseen FileState = "unseen"
	// StateProcessed means an attempt on the clip has been recorded.
	StateProcessed FileState = "processed"
)

// WatchedFile is a clip discovered in the watch folder.
type WatchedFile struct {
	Name       string
	Path       string
	OutputPath string
	// Camera is the first dot-delimited segment of the name.
	Camera string
	// Token is the timestamp segment that follows the camera name.
	Token string
	State FileState
}

// Valid reports whether the name carried a timestamp token.
func (f WatchedFile) Valid() bool {
	return f.Token != ""
}

// Caption is the text sent along with the converted clip.
func (f WatchedFile) Caption() string {
	if !f.Valid() {
		return f.Name
	}
	return f.Camera + " " + f.Token
}

// ParseToken splits a file name such as "FrontDoor.20240101_120000.avi"
// on "." and returns the first segment as the camera name and the second as
// the timestamp token. ok is false when the name has fewer than two segments
// or the second segment is empty.
func ParseToken(name string) (camera, token string, ok bool) {
	parts := strings.Split(name, ".")
	if len(parts) < 2 || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

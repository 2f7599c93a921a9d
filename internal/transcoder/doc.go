// Package transcoder converts motion clips into shareable GIF or MP4 files
// using FFmpeg.
//
// Every conversion uses a fixed argument list built from [Config]: a frame
// rate change, an optional slow-motion PTS multiplier and a Lanczos resize to
// a fixed width. MP4 output additionally selects codec, preset and quality
// and can drop the audio track.
//
// Success is decided by the process exit status and the presence of a
// non-empty output file. FFmpeg's textual output is captured for diagnostics
// only and never parsed.
//
// FFmpeg must be installed and available in the system PATH, or configured
// through FFMPEG_PATH.
package transcoder

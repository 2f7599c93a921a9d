// Package logging provides a simple leveled logging interface for clip-relay.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable.
// Output always goes to stderr and, once [SetFile] has been called, is also
// appended to a log file next to the watched clips.
package logging

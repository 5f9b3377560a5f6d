package sieve

import "errors"

// Sentinel errors for run failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrInputNotFound indicates the log path does not exist.
	// No output file is written.
	ErrInputNotFound = errors.New("sieve: input log not found")

	// ErrInputUnreadable indicates the log exists but could not be read
	// (permissions, a directory, over the size limit).
	ErrInputUnreadable = errors.New("sieve: input log unreadable")

	// ErrInputEmpty indicates the log holds nothing but whitespace.
	// No output file is written.
	ErrInputEmpty = errors.New("sieve: input log is empty")

	// ErrWriteFailure indicates the output file could not be created or
	// written. The underlying cause is wrapped; no partial file remains.
	ErrWriteFailure = errors.New("sieve: cannot write output")

	// ErrInternal wraps a panic recovered during a run.
	ErrInternal = errors.New("sieve: internal error")
)

// ErrorType returns a stable snake_case name for err, used in events,
// metrics labels and MCP error payloads.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputNotFound):
		return "input_not_found"
	case errors.Is(err, ErrInputUnreadable):
		return "input_unreadable"
	case errors.Is(err, ErrInputEmpty):
		return "input_empty"
	case errors.Is(err, ErrWriteFailure):
		return "write_failure"
	case errors.Is(err, ErrInternal):
		return "internal"
	default:
		return "invalid_config"
	}
}

// Describe returns the one-line message reported to users for a failed run.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputNotFound):
		return "raw log file not found, check the path: " + err.Error()
	case errors.Is(err, ErrInputEmpty):
		return "raw log file holds no traffic: " + err.Error()
	case errors.Is(err, ErrInputUnreadable):
		return "raw log file could not be read: " + err.Error()
	case errors.Is(err, ErrWriteFailure):
		return "filtered log could not be written: " + err.Error()
	case errors.Is(err, ErrInternal):
		return "unexpected failure, please report it: " + err.Error()
	default:
		return "invalid configuration: " + err.Error()
	}
}

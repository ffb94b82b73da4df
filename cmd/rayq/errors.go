package main

import "errors"

// Command-level errors.
var (
	// ErrTimeout indicates a demo command's pump loop ended (Queue.Next
	// reported no further work) before the event it was waiting for arrived.
	ErrTimeout = errors.New("runtime ran out of work before the expected event")
)

// FormatUserError renders an error for terminal output. It exists as a
// single seam so a future richer error taxonomy (wrapping *rayerr.
// ProgrammerError or *rayerr.NativeError distinctly) has one place to
// change without touching main's control flow.
func FormatUserError(err error) string {
	return err.Error()
}

// Package rayerr implements the error taxonomy of spec §7: native I/O
// errors (surfaced as Event.Info, translated here to names/strings),
// and programmer errors, which are fatal and never recovered from in
// normal operation.
//
// The translation helpers mirror ray_last_error/ray_strerror/ray_err_name
// from ray.c, which spec.md §1 calls an out-of-scope "pure error-string
// lookup" collaborator; this package supplies the small implementation
// those three functions need rather than leaving a dangling import.
package rayerr

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock is returned by operations that are documented as
// synchronous-but-conditional (spec §4.3 "accept(server, client)") when the
// precondition the caller was supposed to check (a pending Connection
// event) does not actually hold.
var ErrWouldBlock = errors.New("rayq: would block")

// ProgrammerError is raised (via panic) for programmer errors: event or
// request ring overflow, releasing a request slot that is not reserved, and
// an unknown file mode string. Closing an already closing or closed handle
// is a no-op rather than a ProgrammerError. The runtime makes
// no attempt to recover from these; the embedder is expected to treat a
// recovered ProgrammerError as a process-fatal bug, same as the C assert().
type ProgrammerError struct {
	Op  string
	Msg string
}

func (e *ProgrammerError) Error() string {
	return fmt.Sprintf("rayq: programmer error in %s: %s", e.Op, e.Msg)
}

// Fatal panics with a *ProgrammerError. Call sites use this instead of a
// plain panic so callers recovering at a test boundary can type-assert.
func Fatal(op, format string, args ...interface{}) {
	panic(&ProgrammerError{Op: op, Msg: fmt.Sprintf(format, args...)})
}

// NativeError is a completed operation's native error code, as carried in
// Event.Info for Error and filesystem-error events.
type NativeError struct {
	Code int32
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("%s: %s", ErrName(e.Code), Strerror(e.Code))
}

// Strerror returns a short human-readable string for a native error code,
// mirroring ray_strerror.
func Strerror(code int32) string {
	if code == 0 {
		return "success"
	}
	return unix.Errno(-code).Error()
}

// ErrName returns the symbolic name of a native error code (e.g. "ENOENT"),
// mirroring ray_err_name.
func ErrName(code int32) string {
	if code == 0 {
		return "OK"
	}
	errno := unix.Errno(-code)
	if name, ok := errnoNames[errno]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", code)
}

// FromErrno converts a Go syscall error into the negative-errno convention
// used throughout this module's Event.Info field (matching libuv/ray's
// "negative errno is the code" convention).
func FromErrno(err error) int32 {
	if err == nil {
		return 0
	}
	if errors.Is(err, io.EOF) {
		return EOF
	}
	var errno unix.Errno
	if e, ok := err.(unix.Errno); ok {
		errno = e
	} else if unwrapped, ok := unwrapErrno(err); ok {
		errno = unwrapped
	} else {
		return -int32(unix.EIO)
	}
	return -int32(errno)
}

func unwrapErrno(err error) (unix.Errno, bool) {
	type errnoer interface{ Errno() unix.Errno }
	if e, ok := err.(errnoer); ok {
		return e.Errno(), true
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		if inner := u.Unwrap(); inner != nil {
			if e, ok := inner.(unix.Errno); ok {
				return e, true
			}
			return unwrapErrno(inner)
		}
	}
	return 0, false
}

var errnoNames = map[unix.Errno]string{
	unix.EPERM:        "EPERM",
	unix.ENOENT:       "ENOENT",
	unix.EIO:          "EIO",
	unix.EBADF:        "EBADF",
	unix.EAGAIN:       "EAGAIN",
	unix.ENOMEM:       "ENOMEM",
	unix.EACCES:       "EACCES",
	unix.EEXIST:       "EEXIST",
	unix.ENOTDIR:      "ENOTDIR",
	unix.EISDIR:       "EISDIR",
	unix.EINVAL:       "EINVAL",
	unix.ENFILE:       "ENFILE",
	unix.EMFILE:       "EMFILE",
	unix.EPIPE:        "EPIPE",
	unix.ENOSPC:       "ENOSPC",
	unix.EROFS:        "EROFS",
	unix.ECONNRESET:   "ECONNRESET",
	unix.ECONNREFUSED: "ECONNREFUSED",
	unix.ETIMEDOUT:    "ETIMEDOUT",
	unix.EADDRINUSE:   "EADDRINUSE",
}

// EOF is the native error code this module reports on a stream's orderly
// end-of-stream (spec §7.4: "no distinct Eof variant"). EOF has no errno of
// its own on any unix platform, so (as libuv does for UV_EOF) it is assigned
// a dedicated negative sentinel outside the real errno range.
const EOF int32 = -4095

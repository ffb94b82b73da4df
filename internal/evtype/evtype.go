// Package evtype defines the data model shared by the queue, handle, poller
// and ops packages: event kinds, events, and the small set of plain records
// (Stat, Dir, Timespec) that can ride along as an event's payload.
package evtype

import "fmt"

// Kind is a closed tagged enumeration of everything that can complete on the
// runtime thread. It mirrors ray_type_t from ray.h.
type Kind int

const (
	Unknown Kind = iota - 1
	Custom
	Error
	Read
	Write
	Close
	Connection
	Timer
	Idle
	Connect
	Shutdown
	Work

	FsOpen
	FsClose
	FsRead
	FsWrite
	FsSendfile
	FsStat
	FsLstat
	FsFstat
	FsFtruncate
	FsUtime
	FsFutime
	FsChmod
	FsFchmod
	FsFsync
	FsFdatasync
	FsUnlink
	FsRmdir
	FsMkdir
	FsRename
	FsReaddir
	FsLink
	FsSymlink
	FsReadlink
	FsChown
	FsFchown
)

var kindNames = map[Kind]string{
	Unknown:     "unknown",
	Custom:      "custom",
	Error:       "error",
	Read:        "read",
	Write:       "write",
	Close:       "close",
	Connection:  "connection",
	Timer:       "timer",
	Idle:        "idle",
	Connect:     "connect",
	Shutdown:    "shutdown",
	Work:        "work",
	FsOpen:      "fs_open",
	FsClose:     "fs_close",
	FsRead:      "fs_read",
	FsWrite:     "fs_write",
	FsSendfile:  "fs_sendfile",
	FsStat:      "fs_stat",
	FsLstat:     "fs_lstat",
	FsFstat:     "fs_fstat",
	FsFtruncate: "fs_ftruncate",
	FsUtime:     "fs_utime",
	FsFutime:    "fs_futime",
	FsChmod:     "fs_chmod",
	FsFchmod:    "fs_fchmod",
	FsFsync:     "fs_fsync",
	FsFdatasync: "fs_fdatasync",
	FsUnlink:    "fs_unlink",
	FsRmdir:     "fs_rmdir",
	FsMkdir:     "fs_mkdir",
	FsRename:    "fs_rename",
	FsReaddir:   "fs_readdir",
	FsLink:      "fs_link",
	FsSymlink:   "fs_symlink",
	FsReadlink:  "fs_readlink",
	FsChown:     "fs_chown",
	FsFchown:    "fs_fchown",
}

// String implements fmt.Stringer for log messages and test failure output.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Source is the minimal identity of a handle an event originates from. The
// queue and ops packages implement this with *handle.Handle; it is defined
// here (rather than imported from internal/handle) to avoid a dependency
// cycle between evtype and handle.
type Source interface {
	ID() int32
}

// Payload is the discriminated union of everything an Event.Data can carry.
// Its active arm is determined entirely by Event.Kind (spec §3.3); Payload
// itself carries no type information beyond "this is a payload".
type Payload interface {
	isPayload()
}

// ReadPayload is the owned byte buffer of a completed stream Read.
type ReadPayload struct {
	Bytes []byte
}

func (ReadPayload) isPayload() {}

// StatPayload carries the result of FsStat/FsLstat/FsFstat.
type StatPayload struct {
	Stat Stat
}

func (StatPayload) isPayload() {}

// ReaddirPayload carries the result of FsReaddir.
type ReaddirPayload struct {
	Entries []Dir
}

func (ReaddirPayload) isPayload() {}

// ReadlinkPayload carries the result of FsReadlink.
type ReadlinkPayload struct {
	Name string
}

func (ReadlinkPayload) isPayload() {}

// Event is a completed asynchronous notification (spec §3.1).
type Event struct {
	Kind   Kind
	Source Source
	Info   int32
	Data   Payload
}

// Timespec is a POSIX-style {seconds, nanoseconds} pair.
type Timespec struct {
	Sec  int64
	Nsec int64
}

// Stat mirrors ray_stat_s / the little-endian wire layout in spec §6.
type Stat struct {
	Mode  uint32
	UID   uint32
	GID   uint32
	Size  uint64
	Dev   uint64
	Rdev  uint64
	Ino   uint64
	Nlink uint64
	Atim  Timespec
	Mtim  Timespec
	Ctim  Timespec
}

// Dir is one directory entry as returned by FsReaddir.
type Dir struct {
	Name  string
	Nlen  uint64
}

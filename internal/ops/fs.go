// Filesystem operations (spec §4.5 "Filesystem"): synchronous submission
// through a Request slot reserved from the request ring, asynchronous
// completion on a bounded worker pool standing in for the native poller's
// own fs thread pool, and a single shared completion path that selects the
// right EventKind, builds its payload, and always posts with
// source = system handle (spec §9: the "other draft" posting
// container_of(request) instead is the bug this module does not repeat).
package ops

import (
	"os"
	"syscall"
	"time"

	"github.com/cornelk/hashmap"

	"github.com/srg/rayq/internal/evtype"
	"github.com/srg/rayq/internal/groutine"
	"github.com/srg/rayq/internal/queue"
	"github.com/srg/rayq/internal/rayerr"
)

// DefaultFsWorkers bounds the fs worker pool, matching libuv's default
// UV_THREADPOOL_SIZE of 4.
const DefaultFsWorkers = 4

// fdTable maps the small integer file descriptors this surface hands back
// to callers onto the *os.File the Go runtime actually needs, the same
// slab-by-id approach internal/handle uses for handles (spec §9).
type fdTable struct {
	m    *hashmap.Map[int32, *os.File]
	next int64
}

func newFdTable() *fdTable {
	return &fdTable{m: hashmap.New[int32, *os.File]()}
}

func (t *fdTable) register(f *os.File) int32 {
	t.next++
	fd := int32(t.next)
	t.m.Set(fd, f)
	return fd
}

func (t *fdTable) lookup(fd int32) (*os.File, bool) { return t.m.Get(fd) }

func (t *fdTable) forget(fd int32) { t.m.Del(fd) }

// FS is the filesystem operation surface bound to one runtime.
type FS struct {
	q     *queue.Queue
	files *fdTable
	sem   chan struct{}
}

// NewFS creates a filesystem surface over q's system handle and request
// ring.
func NewFS(q *queue.Queue) *FS {
	return &FS{q: q, files: newFdTable(), sem: make(chan struct{}, DefaultFsWorkers)}
}

// submit reserves a request-ring slot, runs work on the bounded worker
// pool, and on completion releases the slot and posts the resulting event
// with source = system handle — the single shared completion path spec
// §4.5 describes.
func (f *FS) submit(build func() (evtype.Kind, int32, evtype.Payload)) {
	idx, _ := f.q.Requests().Reserve()

	f.sem <- struct{}{}
	groutine.GoSimple("rayq-fs-worker", func() {
		kind, info, data := build()
		defer func() { <-f.sem }()
		f.q.Poller().Post(func() {
			f.q.Requests().Release(idx)
			f.q.Post(evtype.Event{Kind: kind, Source: f.q.SystemHandle(), Info: info, Data: data})
		})
	})
}

func resultKindError(kind evtype.Kind, err error) (evtype.Kind, int32, evtype.Payload) {
	if err != nil {
		return evtype.Error, rayerr.FromErrno(err), nil
	}
	return kind, 0, nil
}

func statFromFileInfo(fi os.FileInfo) evtype.Stat {
	st, _ := fi.Sys().(*syscall.Stat_t)
	if st == nil {
		return evtype.Stat{Mode: uint32(fi.Mode()), Size: uint64(fi.Size())}
	}
	toTimespec := func(sec, nsec int64) evtype.Timespec {
		return evtype.Timespec{Sec: sec, Nsec: nsec}
	}
	return evtype.Stat{
		Mode:  st.Mode,
		UID:   st.Uid,
		GID:   st.Gid,
		Size:  uint64(st.Size),
		Dev:   uint64(st.Dev),
		Rdev:  uint64(st.Rdev),
		Ino:   st.Ino,
		Nlink: uint64(st.Nlink),
		Atim:  toTimespec(int64(st.Atim.Sec), int64(st.Atim.Nsec)),
		Mtim:  toTimespec(int64(st.Mtim.Sec), int64(st.Mtim.Nsec)),
		Ctim:  toTimespec(int64(st.Ctim.Sec), int64(st.Ctim.Nsec)),
	}
}

// Open parses mode with parseFileMode and registers the resulting *os.File
// under a small integer fd, emitting FsOpen with info = fd, or an Error
// event with a negative errno on failure.
func (f *FS) Open(path, mode string) {
	flag := parseFileMode(mode)
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		file, err := os.OpenFile(path, flag, 0644)
		if err != nil {
			return evtype.Error, rayerr.FromErrno(err), nil
		}
		fd := f.files.register(file)
		return evtype.FsOpen, fd, nil
	})
}

// Close closes a previously opened fd, emitting FsClose.
func (f *FS) Close(fd int32) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		file, ok := f.files.lookup(fd)
		if !ok {
			return evtype.Error, -int32(syscall.EBADF), nil
		}
		f.files.forget(fd)
		return resultKindError(evtype.FsClose, file.Close())
	})
}

// Read fills buf (caller-owned, per spec §3.3 "not owned by Event") from
// fd at the current file position and emits FsRead with info = bytes read.
func (f *FS) Read(fd int32, buf []byte) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		file, ok := f.files.lookup(fd)
		if !ok {
			return evtype.Error, -int32(syscall.EBADF), nil
		}
		n, err := file.Read(buf)
		if err != nil && n == 0 {
			return evtype.Error, rayerr.FromErrno(err), nil
		}
		return evtype.FsRead, int32(n), nil
	})
}

// Write writes buf to fd at offset (or the current position if offset<0)
// and emits FsWrite with the result.
func (f *FS) Write(fd int32, buf []byte, offset int64) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		file, ok := f.files.lookup(fd)
		if !ok {
			return evtype.Error, -int32(syscall.EBADF), nil
		}
		var err error
		if offset < 0 {
			_, err = file.Write(buf)
		} else {
			_, err = file.WriteAt(buf, offset)
		}
		return resultKindError(evtype.FsWrite, err)
	})
}

// Stat emits FsStat with an owned Stat payload.
func (f *FS) Stat(path string) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		fi, err := os.Stat(path)
		if err != nil {
			return evtype.Error, rayerr.FromErrno(err), nil
		}
		return evtype.FsStat, 0, evtype.StatPayload{Stat: statFromFileInfo(fi)}
	})
}

// Lstat is Stat without following a terminal symlink, emitting FsLstat.
func (f *FS) Lstat(path string) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		fi, err := os.Lstat(path)
		if err != nil {
			return evtype.Error, rayerr.FromErrno(err), nil
		}
		return evtype.FsLstat, 0, evtype.StatPayload{Stat: statFromFileInfo(fi)}
	})
}

// Fstat stats an already-open fd, emitting FsFstat (spec §9: one draft
// mislabels this completion FsReaddir; this surface assigns the kind the
// spec mandates).
func (f *FS) Fstat(fd int32) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		file, ok := f.files.lookup(fd)
		if !ok {
			return evtype.Error, -int32(syscall.EBADF), nil
		}
		fi, err := file.Stat()
		if err != nil {
			return evtype.Error, rayerr.FromErrno(err), nil
		}
		return evtype.FsFstat, 0, evtype.StatPayload{Stat: statFromFileInfo(fi)}
	})
}

// Readdir lists path's entries, emitting FsReaddir with info = entry count
// and an owned Dir array (spec S5).
func (f *FS) Readdir(path string) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		entries, err := os.ReadDir(path)
		if err != nil {
			return evtype.Error, rayerr.FromErrno(err), nil
		}
		dirs := make([]evtype.Dir, len(entries))
		for i, e := range entries {
			name := e.Name()
			dirs[i] = evtype.Dir{Name: name, Nlen: uint64(len(name))}
		}
		return evtype.FsReaddir, int32(len(dirs)), evtype.ReaddirPayload{Entries: dirs}
	})
}

// Unlink removes a file, emitting FsUnlink.
func (f *FS) Unlink(path string) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		return resultKindError(evtype.FsUnlink, os.Remove(path))
	})
}

// Rmdir removes an empty directory, emitting FsRmdir.
func (f *FS) Rmdir(path string) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		return resultKindError(evtype.FsRmdir, syscall.Rmdir(path))
	})
}

// Mkdir creates a directory, emitting FsMkdir.
func (f *FS) Mkdir(path string, mode uint32) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		return resultKindError(evtype.FsMkdir, os.Mkdir(path, os.FileMode(mode)))
	})
}

// Rename renames oldpath to newpath, emitting FsRename.
func (f *FS) Rename(oldpath, newpath string) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		return resultKindError(evtype.FsRename, os.Rename(oldpath, newpath))
	})
}

// Link creates a hard link at newpath pointing at oldpath, emitting FsLink.
func (f *FS) Link(oldpath, newpath string) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		return resultKindError(evtype.FsLink, os.Link(oldpath, newpath))
	})
}

// Symlink creates linkpath as a symlink to target, emitting FsSymlink.
// mode is parsed with parseFileMode purely for the validation spec §4.5
// groups with fs_open; POSIX symlinks have no access-mode bits of their
// own, so the parsed flag set itself is otherwise unused.
func (f *FS) Symlink(target, linkpath, mode string) {
	parseFileMode(mode)
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		return resultKindError(evtype.FsSymlink, os.Symlink(target, linkpath))
	})
}

// Readlink emits FsReadlink with info = name length and an owned,
// null-terminated-in-spirit name string.
func (f *FS) Readlink(path string) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		target, err := os.Readlink(path)
		if err != nil {
			return evtype.Error, rayerr.FromErrno(err), nil
		}
		return evtype.FsReadlink, int32(len(target)), evtype.ReadlinkPayload{Name: target}
	})
}

// Chown changes path's owner/group, emitting FsChown.
func (f *FS) Chown(path string, uid, gid int) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		return resultKindError(evtype.FsChown, os.Chown(path, uid, gid))
	})
}

// Fchown is Chown on an already-open fd, emitting FsFchown.
func (f *FS) Fchown(fd int32, uid, gid int) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		file, ok := f.files.lookup(fd)
		if !ok {
			return evtype.Error, -int32(syscall.EBADF), nil
		}
		return resultKindError(evtype.FsFchown, file.Chown(uid, gid))
	})
}

// Chmod changes path's mode bits, emitting FsChmod.
func (f *FS) Chmod(path string, mode uint32) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		return resultKindError(evtype.FsChmod, os.Chmod(path, os.FileMode(mode)))
	})
}

// Fchmod is Chmod on an already-open fd, emitting FsFchmod.
func (f *FS) Fchmod(fd int32, mode uint32) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		file, ok := f.files.lookup(fd)
		if !ok {
			return evtype.Error, -int32(syscall.EBADF), nil
		}
		return resultKindError(evtype.FsFchmod, file.Chmod(os.FileMode(mode)))
	})
}

// Fsync flushes fd's data and metadata to stable storage, emitting
// FsFsync.
func (f *FS) Fsync(fd int32) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		file, ok := f.files.lookup(fd)
		if !ok {
			return evtype.Error, -int32(syscall.EBADF), nil
		}
		return resultKindError(evtype.FsFsync, file.Sync())
	})
}

// Fdatasync is Fsync without the metadata guarantee on platforms that
// distinguish them; this surface has no cheaper primitive available than
// Sync, so it reuses it but still emits the distinct FsFdatasync kind.
func (f *FS) Fdatasync(fd int32) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		file, ok := f.files.lookup(fd)
		if !ok {
			return evtype.Error, -int32(syscall.EBADF), nil
		}
		return resultKindError(evtype.FsFdatasync, file.Sync())
	})
}

// Ftruncate truncates (or extends) fd to length, emitting FsFtruncate.
func (f *FS) Ftruncate(fd int32, length int64) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		file, ok := f.files.lookup(fd)
		if !ok {
			return evtype.Error, -int32(syscall.EBADF), nil
		}
		return resultKindError(evtype.FsFtruncate, file.Truncate(length))
	})
}

// Utime sets path's access/modification times, emitting FsUtime.
func (f *FS) Utime(path string, atime, mtime time.Time) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		return resultKindError(evtype.FsUtime, os.Chtimes(path, atime, mtime))
	})
}

// Futime is Utime on an already-open fd, emitting FsFutime.
func (f *FS) Futime(fd int32, atime, mtime time.Time) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		file, ok := f.files.lookup(fd)
		if !ok {
			return evtype.Error, -int32(syscall.EBADF), nil
		}
		return resultKindError(evtype.FsFutime, os.Chtimes(file.Name(), atime, mtime))
	})
}

// Sendfile copies length bytes from inFd to outFd starting at offset,
// emitting FsSendfile with the number of bytes copied.
func (f *FS) Sendfile(outFd, inFd int32, offset int64, length int) {
	f.submit(func() (evtype.Kind, int32, evtype.Payload) {
		in, ok := f.files.lookup(inFd)
		if !ok {
			return evtype.Error, -int32(syscall.EBADF), nil
		}
		out, ok := f.files.lookup(outFd)
		if !ok {
			return evtype.Error, -int32(syscall.EBADF), nil
		}
		buf := make([]byte, length)
		n, err := in.ReadAt(buf, offset)
		if err != nil && n == 0 {
			return evtype.Error, rayerr.FromErrno(err), nil
		}
		written, err := out.Write(buf[:n])
		if err != nil {
			return evtype.Error, rayerr.FromErrno(err), nil
		}
		return evtype.FsSendfile, int32(written), nil
	})
}

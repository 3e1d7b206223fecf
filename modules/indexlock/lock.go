// Package indexlock provides scoped exclusive acquisition of the
// on-disk index lockfile, guaranteeing release on every exit path.
package indexlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrLockContention is returned when another process already holds the
// index lock.
var ErrLockContention = errors.New("indexlock: index is locked by another process")

// Lock represents a held exclusive lock over path+".lock". The zero
// value is not usable; obtain one via Acquire.
type Lock struct {
	path     string
	lockPath string
	fd       *os.File
	released bool
}

// Acquire creates path+".lock" with O_CREATE|O_EXCL, then layers an
// advisory flock underneath — belt-and-suspenders against lock-file-only
// races on NFS-like mounts, where O_EXCL semantics are not always
// reliable.
func Acquire(path string) (*Lock, error) {
	lockPath := path + ".lock"
	_ = os.MkdirAll(filepath.Dir(lockPath), 0o755)
	fd, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrLockContention
		}
		return nil, fmt.Errorf("indexlock: open %s: %w", lockPath, err)
	}
	if err := unix.Flock(int(fd.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = fd.Close()
		_ = os.Remove(lockPath)
		return nil, ErrLockContention
	}
	return &Lock{path: path, lockPath: lockPath, fd: fd}, nil
}

// Write writes content to the locked file, without releasing the lock.
// Callers that want an atomic commit should call Write then Commit.
func (l *Lock) Write(content []byte) error {
	if l.released {
		return fmt.Errorf("indexlock: write after release")
	}
	if _, err := l.fd.WriteAt(content, 0); err != nil {
		return err
	}
	return l.fd.Truncate(int64(len(content)))
}

// Commit renames the lockfile over the real index path, releasing the
// lock as a side effect of the rename. This is the success path.
func (l *Lock) Commit() error {
	if l.released {
		return nil
	}
	l.released = true
	_ = l.fd.Close()
	return os.Rename(l.lockPath, l.path)
}

// Rollback discards the lockfile without touching the real index path.
// This is the failure/abort path and is always safe to call, including
// from a defer alongside a prior Commit (idempotent once released).
func (l *Lock) Rollback() error {
	if l.released {
		return nil
	}
	l.released = true
	_ = l.fd.Close()
	return os.Remove(l.lockPath)
}

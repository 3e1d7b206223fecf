package collab

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeta-vcs/zeta-merge/modules/filemode"
)

// DiskWorktree is the real WorktreeWriter: every Remove/Write lands
// directly on the filesystem under Root, the literal syscall-level
// checkout replacement the driver packages need to be runnable against
// an actual working tree rather than cmd/'s in-memory fixtures.
type DiskWorktree struct {
	Root string

	mu      sync.Mutex
	tracked map[string]bool
}

func NewDiskWorktree(root string) *DiskWorktree {
	return &DiskWorktree{Root: root, tracked: make(map[string]bool)}
}

func (w *DiskWorktree) abs(path string) string {
	return filepath.Join(w.Root, filepath.FromSlash(path))
}

// MarkTracked records path as already present under version control,
// the disk equivalent of MemoryWorktree starting "clean" — populate
// this from the head tree's entries (see mergecli.MarkTrackedFromTree)
// before driving a real merge so HasUntracked can tell a genuinely
// untracked file from one the merge itself is about to add.
func (w *DiskWorktree) MarkTracked(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tracked[path] = true
}

func (w *DiskWorktree) Remove(path string) error {
	err := os.Remove(w.abs(path))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("collab: remove %s: %w", path, err)
	}
	w.mu.Lock()
	delete(w.tracked, path)
	w.mu.Unlock()
	return nil
}

// Write performs the atomic-enough unlink/create/write/close sequence:
// the existing path is removed first (so a regular-file-to-symlink
// mode change doesn't collide with O_CREATE on an existing file of the
// wrong type), then recreated with mode's permission bits.
func (w *DiskWorktree) Write(path string, mode filemode.FileMode, content []byte) error {
	full := w.abs(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("collab: mkdir for %s: %w", path, err)
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("collab: remove existing %s: %w", path, err)
	}
	if mode.IsSymlink() {
		if err := os.Symlink(string(content), full); err != nil {
			return fmt.Errorf("collab: symlink %s: %w", path, err)
		}
	} else {
		f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.ToOSFileMode())
		if err != nil {
			return fmt.Errorf("collab: create %s: %w", path, err)
		}
		if _, err := f.Write(content); err != nil {
			f.Close()
			return fmt.Errorf("collab: write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("collab: close %s: %w", path, err)
		}
	}
	w.mu.Lock()
	w.tracked[path] = true
	w.mu.Unlock()
	return nil
}

// HasUntracked reports whether path exists on disk but was never
// marked tracked — i.e. the merge is about to clobber a file the
// caller never put under version control.
func (w *DiskWorktree) HasUntracked(path string) (bool, error) {
	w.mu.Lock()
	isTracked := w.tracked[path]
	w.mu.Unlock()
	if isTracked {
		return false, nil
	}
	if _, err := os.Lstat(w.abs(path)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("collab: stat %s: %w", path, err)
	}
	return true, nil
}

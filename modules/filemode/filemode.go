// Package filemode models the small set of file modes the merge driver
// distinguishes structurally: regular (with an executable bit),
// symlink, and gitlink (submodule reference).
package filemode

import (
	"fmt"
	"os"
)

// FileMode is a structural file-mode tag, comparable by value.
type FileMode uint32

const (
	Empty      FileMode = 0
	Regular    FileMode = 0o100644
	Executable FileMode = 0o100755
	Symlink    FileMode = 0o120000
	Gitlink    FileMode = 0o160000
	Dir        FileMode = 0o040000
	// Fragments marks a path whose content merge is not textual —
	// tracked alongside the mode for oversized/binary blobs that
	// bypass the line-merge engine entirely.
	Fragments FileMode = 0o170000
)

func (m FileMode) IsRegular() bool    { return m == Regular || m == Executable }
func (m FileMode) IsExecutable() bool { return m == Executable }
func (m FileMode) IsSymlink() bool    { return m == Symlink }
func (m FileMode) IsGitlink() bool    { return m == Gitlink }
func (m FileMode) IsFragments() bool  { return m == Fragments }
func (m FileMode) IsEmpty() bool      { return m == Empty }

// String renders the canonical six-digit octal form used in index
// entries and the external merge-program argv (e.g. "100644").
func (m FileMode) String() string {
	if m == Empty {
		return ""
	}
	return fmt.Sprintf("%06o", uint32(m))
}

func New(s string) (FileMode, error) {
	if s == "" {
		return Empty, nil
	}
	var v uint32
	if _, err := fmt.Sscanf(s, "%o", &v); err != nil {
		return Empty, fmt.Errorf("filemode: %q is not a valid octal mode", s)
	}
	return FileMode(v), nil
}

// ToOSFileMode converts to the os.FileMode the worktree writer should
// use when creating the file.
func (m FileMode) ToOSFileMode() os.FileMode {
	switch {
	case m.IsExecutable():
		return 0o755
	case m.IsSymlink():
		return os.ModeSymlink | 0o777
	default:
		return 0o644
	}
}

package pathmerge

import (
	"github.com/zeta-vcs/zeta-merge/modules/filemode"
	"github.com/zeta-vcs/zeta-merge/modules/objectid"
)

// ObjectStore is the read-side collaborator PathMerger needs: blob
// content by ID. The full object store (tree/commit retrieval, empty
// tree ID) is an external collaborator, out of scope here — see
// pkg/collab.
type ObjectStore interface {
	ReadBlob(id objectid.ID) ([]byte, error)
}

// LineMerger is the ll-merge equivalent collaborator: a three-way text
// merge returning (bytes, status) where status < 0 is an internal
// failure, == 0 is clean, > 0 is the conflict-hunk count.
type LineMerger interface {
	MergeText(orig, ours, theirs []byte, labelOurs, labelTheirs string) (merged []byte, status int, err error)
}

// StyledLineMerger is an optional LineMerger extension: engines that
// support more than one conflict-hunk rendering (e.g. internal/diff3merge's
// merge/diff3/zdiff3 styles) implement this so Merger.Style's per-path
// conflict-style lookup (sourced from internal/mergeconf) has somewhere
// to land.
type StyledLineMerger interface {
	LineMerger
	MergeTextStyled(orig, ours, theirs []byte, labelOurs, labelTheirs, style string) (merged []byte, status int, err error)
}

// WorktreeWriter performs the atomic per-path worktree replacement:
// unlink, create with mode, write, close.
type WorktreeWriter interface {
	Remove(path string) error
	Write(path string, mode filemode.FileMode, content []byte) error
	HasUntracked(path string) (bool, error)
}

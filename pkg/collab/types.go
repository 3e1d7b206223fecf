// Package collab defines the external collaborator interfaces the
// spec places out of scope (object store, unpack-trees, merge bases,
// index I/O) and ships in-memory implementations (MemoryStore,
// MemoryUnpackTrees, MemoryIndexIO, MemoryWorktree) plus disk-backed
// ones (FileObjectStore, FileIndexIO, DiskWorktree) so the CLI binaries
// are runnable end-to-end. A real
// deployment swaps this package for an object-store/transport layer;
// the driver packages only depend on the interfaces.
package collab

import (
	"context"

	"github.com/zeta-vcs/zeta-merge/modules/mergeindex"
	"github.com/zeta-vcs/zeta-merge/modules/objectid"
)

// CommitRef is an opaque commit handle exposing id/tree/parents.
type CommitRef struct {
	ID      objectid.ID
	TreeID  objectid.ID
	Parents []objectid.ID
}

// TreeEntry is one row of a parsed tree.
type TreeEntry struct {
	Path string
	OID  objectid.ID
	Mode uint32
}

// Tree is a parsed tree: a flat, path-sorted entry list (subtrees are
// pre-flattened by the object store for this driver's purposes — the
// on-disk tree format itself is out of scope).
type Tree struct {
	ID      objectid.ID
	Entries []TreeEntry
}

// ObjectStore resolves content addresses to parsed objects.
type ObjectStore interface {
	ParseTree(ctx context.Context, id objectid.ID) (*Tree, error)
	ParseCommit(ctx context.Context, id objectid.ID) (*CommitRef, error)
	ReadBlob(ctx context.Context, id objectid.ID) ([]byte, error)
	EmptyTreeID() objectid.ID
}

// UnpackFn selects the n-way reconciliation mode.
type UnpackFn int

const (
	OneWay UnpackFn = iota
	TwoWay
	ThreeWay
)

// UnpackOptions mirrors the base spec's §6.2 UnpackTrees option bundle.
type UnpackOptions struct {
	HeadIdx         int
	Merge           bool
	Update          bool
	Aggressive      bool
	InitialCheckout bool
	Fn              UnpackFn
}

// UnpackTrees is the n-way index reconciler: applies tree contents to
// the target index under update/merge/aggressive flags.
type UnpackTrees interface {
	Unpack(ctx context.Context, index *mergeindex.Index, trees []objectid.ID, opts *UnpackOptions) error
}

// MergeBases computes the common-ancestor set of commit against each
// of commits.
type MergeBases interface {
	MergeBasesMany(ctx context.Context, commit objectid.ID, commits []objectid.ID) ([]objectid.ID, error)
}

// IndexIO is the on-disk index collaborator: refresh against the
// worktree, write the locked index, and write it as a tree.
type IndexIO interface {
	Refresh(ctx context.Context, index *mergeindex.Index) error
	WriteLocked(ctx context.Context, index *mergeindex.Index) error
	// WriteAsTree attempts to write index as a tree; ok is false when
	// unmerged stage-1/2/3 entries remain (not a hard error).
	WriteAsTree(ctx context.Context, index *mergeindex.Index, silent bool) (id objectid.ID, ok bool, err error)
}

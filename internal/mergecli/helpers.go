// Package mergecli holds the argument-resolution helpers shared by the
// merge-resolve and merge-octopus command surfaces: EMPTY_TREE sentinel
// handling and the context-dropping adapter pathmerge.ObjectStore needs
// over the context-aware pkg/collab.ObjectStore.
package mergecli

import (
	"context"
	"fmt"

	"github.com/zeta-vcs/zeta-merge/modules/mergeindex"
	"github.com/zeta-vcs/zeta-merge/modules/objectid"
	"github.com/zeta-vcs/zeta-merge/pkg/collab"
)

// EmptyTreeSentinel is the CLI-level stand-in for "no commit here" per
// base spec §6.1: any positional argument equal to this value is
// skipped rather than resolved.
const EmptyTreeSentinel = "EMPTY_TREE"

// ResolveTreeArg parses a bare tree/object ID argument, returning the
// zero ID (absent) for the EMPTY_TREE sentinel.
func ResolveTreeArg(arg string) (objectid.ID, error) {
	if arg == EmptyTreeSentinel {
		return objectid.Zero, nil
	}
	id, err := objectid.NewEx(arg)
	if err != nil {
		return objectid.Zero, fmt.Errorf("invalid object id %q: %w", arg, err)
	}
	return id, nil
}

// ResolveCommitArgs parses a list of commit-ish arguments against store,
// skipping any EMPTY_TREE sentinel entirely (it contributes no entry,
// not a nil placeholder).
func ResolveCommitArgs(ctx context.Context, store collab.ObjectStore, args []string) ([]*collab.CommitRef, error) {
	var refs []*collab.CommitRef
	for _, a := range args {
		if a == EmptyTreeSentinel {
			continue
		}
		id, err := objectid.NewEx(a)
		if err != nil {
			return nil, fmt.Errorf("invalid object id %q: %w", a, err)
		}
		c, err := store.ParseCommit(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", a, err)
		}
		refs = append(refs, c)
	}
	return refs, nil
}

// StoreAdapter narrows pkg/collab.ObjectStore's context-aware ReadBlob
// down to the context-less pathmerge.ObjectStore collaborator contract.
type StoreAdapter struct {
	Store collab.ObjectStore
}

func (a StoreAdapter) ReadBlob(id objectid.ID) ([]byte, error) {
	return a.Store.ReadBlob(context.Background(), id)
}

// MarkTrackedFromTree pre-seeds a collab.DiskWorktree's tracked-file
// set from treeID's entries, so HasUntracked correctly recognizes
// content the checkout already placed on disk before this invocation
// rather than treating every pre-existing file as untracked.
func MarkTrackedFromTree(ctx context.Context, store collab.ObjectStore, treeID objectid.ID, wt *collab.DiskWorktree) error {
	if treeID.IsZero() || treeID == store.EmptyTreeID() {
		return nil
	}
	tree, err := store.ParseTree(ctx, treeID)
	if err != nil {
		return fmt.Errorf("mark tracked from %s: %w", treeID, err)
	}
	for _, e := range tree.Entries {
		wt.MarkTracked(e.Path)
	}
	return nil
}

// CheckoutMerged writes every stage-0 (fully merged) entry of index to
// disk through wt — the checkout_entry equivalent unpack-trees itself
// never performs. Without this, a clean unpack_trees pass (the common
// case: no path actually conflicted) would resolve the index correctly
// but leave the real working tree untouched, since PathMerger.Write
// only fires for paths the IndexWalker actually visits.
func CheckoutMerged(ctx context.Context, store collab.ObjectStore, index *mergeindex.Index, wt *collab.DiskWorktree) error {
	for _, e := range index.Entries {
		if e.Stage != mergeindex.Merged {
			continue
		}
		content, err := store.ReadBlob(ctx, e.OID)
		if err != nil {
			return fmt.Errorf("checkout %s: %w", e.Path, err)
		}
		if err := wt.Write(e.Path, e.Mode, content); err != nil {
			return fmt.Errorf("checkout %s: %w", e.Path, err)
		}
	}
	return nil
}

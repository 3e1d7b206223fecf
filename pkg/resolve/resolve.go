// Package resolve implements the ResolveDriver: a two-head merge over
// one or more merge bases and a per-path content-merge fallback when
// the unpack-trees pass leaves conflicts. Every base tree is passed to
// UnpackTrees; the bundled MemoryUnpackTrees uses only the first base
// tree as the ancestor and does not unify several bases.
package resolve

import (
	"context"
	"fmt"

	"github.com/zeta-vcs/zeta-merge/modules/objectid"
	"github.com/zeta-vcs/zeta-merge/pkg/collab"
	"github.com/zeta-vcs/zeta-merge/pkg/indexwalker"
	"github.com/zeta-vcs/zeta-merge/pkg/mergectx"
	"github.com/zeta-vcs/zeta-merge/pkg/pathmerge"
)

// Inputs bundles the driver's three argument slots.
type Inputs struct {
	Bases  []*collab.CommitRef
	HeadID objectid.ID // optional; zero means absent
	Remote *collab.CommitRef
}

// Driver is the ResolveDriver.
type Driver struct {
	Ctx    *mergectx.Context
	Merger *pathmerge.Merger

	// WalkCallback overrides the default Merger.AsCallback dispatch —
	// e.g. an extmerge.Callback when a merge-driver attribute names an
	// external program for every path. Nil uses the built-in PathMerger.
	WalkCallback indexwalker.Callback
}

func New(ctx *mergectx.Context, merger *pathmerge.Merger) *Driver {
	return &Driver{Ctx: ctx, Merger: merger}
}

func (d *Driver) callback() indexwalker.Callback {
	if d.WalkCallback != nil {
		return d.WalkCallback
	}
	return d.Merger.AsCallback(d.Ctx.Index)
}

func (d *Driver) buildTreeList(in *Inputs) (trees []objectid.ID, headIdx int) {
	headIdx = -1
	for _, b := range in.Bases {
		trees = append(trees, b.TreeID)
	}
	if !in.HeadID.IsZero() {
		headIdx = len(trees)
		trees = append(trees, in.HeadID)
	}
	if in.Remote != nil {
		trees = append(trees, in.Remote.TreeID)
	}
	return trees, headIdx
}

// Run executes the ResolveDriver algorithm, returning the exit code
// {0, 1, 2}.
func (d *Driver) Run(ctx context.Context, in *Inputs) (int, error) {
	if err := d.Ctx.AcquireLock(); err != nil {
		d.Ctx.Reporter.Fatal("%v", err)
		return 2, err
	}
	defer d.Ctx.ReleaseLock()

	if err := d.Ctx.IndexIO.Refresh(ctx, d.Ctx.Index); err != nil {
		return 2, err
	}

	trees, headIdx := d.buildTreeList(in)
	if len(trees) == 0 {
		return 2, fmt.Errorf("resolve: no tree descriptors to merge")
	}

	opts := &collab.UnpackOptions{Aggressive: true, Merge: true, Update: true, HeadIdx: headIdx}
	switch len(trees) {
	case 1:
		opts.Fn = collab.OneWay
	case 2:
		opts.Fn = collab.TwoWay
		opts.InitialCheckout = len(d.Ctx.Index.Entries) == 0
	default:
		opts.Fn = collab.ThreeWay
	}

	if err := d.Ctx.UnpackTrees.Unpack(ctx, d.Ctx.Index, trees, opts); err != nil {
		return 2, err
	}

	d.Ctx.Reporter.Progress("Trying simple merge.")
	if err := d.Ctx.IndexIO.WriteLocked(ctx, d.Ctx.Index); err != nil {
		return 2, err
	}
	if _, ok, err := d.Ctx.IndexIO.WriteAsTree(ctx, d.Ctx.Index, true); err != nil {
		return 2, err
	} else if ok {
		if err := d.Ctx.Lock.Commit(); err != nil {
			return 2, err
		}
		return 0, nil
	}

	d.Ctx.Reporter.Progress("Simple merge failed, trying Automatic merge.")
	walker := indexwalker.New(d.callback())
	conflicts, err := walker.MergeAll(ctx, d.Ctx.Index, false)
	if err != nil {
		return 2, err
	}
	if err := d.Ctx.IndexIO.WriteLocked(ctx, d.Ctx.Index); err != nil {
		return 2, err
	}
	if err := d.Ctx.Lock.Commit(); err != nil {
		return 2, err
	}
	if conflicts != 0 {
		return 1, nil
	}
	return 0, nil
}

// Abort discards a conflicted resolve in progress: re-acquire the
// index lock and reset the index to a clean one-way checkout of
// headTreeID, the worktree_merge mergeAbort equivalent. Unlike the
// in-process rollback this used to be, a real --abort runs in a fresh
// CLI invocation after the conflicted run already committed its index,
// so there's nothing left to roll back — only a reset forward to head.
func (d *Driver) Abort(ctx context.Context, headTreeID objectid.ID) error {
	if err := d.Ctx.AcquireLock(); err != nil {
		return err
	}
	defer d.Ctx.ReleaseLock()
	if err := d.Ctx.UnpackTrees.Unpack(ctx, d.Ctx.Index, []objectid.ID{headTreeID}, &collab.UnpackOptions{Fn: collab.OneWay}); err != nil {
		return err
	}
	if err := d.Ctx.IndexIO.WriteLocked(ctx, d.Ctx.Index); err != nil {
		return err
	}
	return d.Ctx.Lock.Commit()
}

// Continue resumes a conflicted resolve after manual fixups: reload
// the persisted index, re-run merge_all over whatever stage-1/2/3
// entries remain, then write and commit the index, returning 1 if
// conflicts are left.
func (d *Driver) Continue(ctx context.Context) (int, error) {
	if err := d.Ctx.AcquireLock(); err != nil {
		return 2, err
	}
	defer d.Ctx.ReleaseLock()
	if err := d.Ctx.IndexIO.Refresh(ctx, d.Ctx.Index); err != nil {
		return 2, err
	}
	walker := indexwalker.New(d.callback())
	conflicts, err := walker.MergeAll(ctx, d.Ctx.Index, false)
	if err != nil {
		return 2, err
	}
	if err := d.Ctx.IndexIO.WriteLocked(ctx, d.Ctx.Index); err != nil {
		return 2, err
	}
	if err := d.Ctx.Lock.Commit(); err != nil {
		return 2, err
	}
	if conflicts != 0 {
		return 1, nil
	}
	return 0, nil
}

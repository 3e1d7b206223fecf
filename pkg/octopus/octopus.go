// Package octopus implements the OctopusDriver: an N-remote merge loop
// that alternates fast-forward and simple-merge, enforcing the
// last-only-conflict rule — only the final remote may leave a
// hand-resolvable conflicted index.
package octopus

import (
	"context"
	"fmt"

	"github.com/zeta-vcs/zeta-merge/modules/objectid"
	"github.com/zeta-vcs/zeta-merge/pkg/collab"
	"github.com/zeta-vcs/zeta-merge/pkg/indexwalker"
	"github.com/zeta-vcs/zeta-merge/pkg/mergectx"
	"github.com/zeta-vcs/zeta-merge/pkg/pathmerge"
)

// WorktreeStatus is an optional preflight collaborator: a driver that
// can report local changes relative to a tree skips the preflight
// check when this is nil.
type WorktreeStatus interface {
	DirtyPaths(ctx context.Context, referenceTree objectid.ID) ([]string, error)
}

// Inputs bundles the driver's arguments: bases are informational only
// (the loop recomputes common ancestors per remote); head and remotes
// are required, |remotes| >= 2.
type Inputs struct {
	Bases   []*collab.CommitRef
	Head    *collab.CommitRef
	Remotes []*collab.CommitRef
}

// Driver is the OctopusDriver.
type Driver struct {
	Ctx    *mergectx.Context
	Merger *pathmerge.Merger
	Status WorktreeStatus

	// WalkCallback overrides the default Merger.AsCallback dispatch, as
	// in pkg/resolve.Driver.
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

// Run executes the OctopusDriver algorithm, returning the exit code
// {0, 1, 2}.
func (d *Driver) Run(ctx context.Context, in *Inputs) (int, error) {
	if len(in.Remotes) < 2 {
		return 2, fmt.Errorf("octopus: at least two remotes required")
	}

	if err := d.Ctx.AcquireLock(); err != nil {
		d.Ctx.Reporter.Fatal("%v", err)
		return 2, err
	}
	defer d.Ctx.ReleaseLock()

	if err := d.Ctx.IndexIO.Refresh(ctx, d.Ctx.Index); err != nil {
		return 2, err
	}

	referenceCommits := []*collab.CommitRef{in.Head}
	referenceTree := in.Head.TreeID

	if d.Status != nil {
		dirty, err := d.Status.DirtyPaths(ctx, referenceTree)
		if err != nil {
			return 2, err
		}
		if len(dirty) > 0 {
			d.Ctx.Reporter.Error("", "Your local changes to the following files would be overwritten by merge:")
			for _, p := range dirty {
				d.Ctx.Reporter.Progress("\t%s", p)
			}
			return 2, fmt.Errorf("octopus: local changes would be overwritten")
		}
	}

	nonFFMerge := false
	ret := 0

	for i, c := range in.Remotes {
		if ret != 0 {
			d.Ctx.Reporter.Error("", "Automated merge did not work.")
			d.Ctx.Reporter.Error("", "Should not be doing an octopus.")
			return d.commit(ctx, 2, fmt.Errorf("octopus: last-only-conflict rule violated at remote %d", i))
		}

		refIDs := make([]objectid.ID, len(referenceCommits))
		for j, rc := range referenceCommits {
			refIDs[j] = rc.ID
		}
		common, err := d.Ctx.MergeBases.MergeBasesMany(ctx, c.ID, refIDs)
		if err != nil {
			return 2, err
		}
		if len(common) == 0 {
			d.Ctx.Reporter.Fatal("Unable to find common commit with %s", c.ID)
			return 2, fmt.Errorf("octopus: no common ancestor with %s", c.ID)
		}
		commonSet := make(map[objectid.ID]bool, len(common))
		alreadyAncestor := false
		for _, b := range common {
			commonSet[b] = true
			if b == c.ID {
				alreadyAncestor = true
			}
		}
		if alreadyAncestor {
			d.Ctx.Reporter.Progress("Already up to date with %s.", c.ID)
			continue
		}

		canFF := !nonFFMerge && len(common) >= len(referenceCommits)
		if canFF {
			for _, rc := range referenceCommits {
				if !commonSet[rc.ID] {
					canFF = false
					break
				}
			}
		}

		if canFF {
			if err := d.Ctx.UnpackTrees.Unpack(ctx, d.Ctx.Index, []objectid.ID{referenceTree, c.TreeID}, &collab.UnpackOptions{Fn: collab.TwoWay, Aggressive: false, Update: true, Merge: true}); err != nil {
				return 2, err
			}
			referenceTree = c.TreeID
			referenceCommits = []*collab.CommitRef{c}
			continue
		}

		nonFFMerge = true
		trees := make([]objectid.ID, 0, len(common)+2)
		for _, b := range common {
			baseCommit, err := d.Ctx.Store.ParseCommit(ctx, b)
			if err != nil {
				return 2, fmt.Errorf("octopus: resolve common ancestor %s: %w", b, err)
			}
			trees = append(trees, baseCommit.TreeID)
		}
		trees = append(trees, referenceTree, c.TreeID)
		if err := d.Ctx.UnpackTrees.Unpack(ctx, d.Ctx.Index, trees, &collab.UnpackOptions{
			Fn: collab.ThreeWay, Aggressive: true, Update: true, Merge: true, HeadIdx: len(trees) - 2,
		}); err != nil {
			return 2, err
		}

		newTree, ok, err := d.Ctx.IndexIO.WriteAsTree(ctx, d.Ctx.Index, true)
		if err != nil {
			return 2, err
		}
		if ok {
			referenceTree = newTree
		} else {
			d.Ctx.Reporter.Progress("Simple merge did not work, trying automatic merge.")
			walker := indexwalker.New(d.callback())
			conflicts, err := walker.MergeAll(ctx, d.Ctx.Index, false)
			if err != nil {
				return 2, err
			}
			ret = 0
			if conflicts != 0 {
				ret = 1
			}
			if newTree, ok, err = d.Ctx.IndexIO.WriteAsTree(ctx, d.Ctx.Index, true); err == nil && ok {
				referenceTree = newTree
			}
		}

		referenceCommits = append(referenceCommits, c)
	}

	return d.commit(ctx, ret, nil)
}

// commit persists the final index to disk and releases the
// whole-invocation lock, both when the loop runs to its end and on the
// last-only-conflict abort — the same WriteLocked then
// Lock.Commit sequence pkg/resolve.Driver.Run uses, so the on-disk
// index is never left stale regardless of which remote the loop
// stopped at.
func (d *Driver) commit(ctx context.Context, code int, err error) (int, error) {
	if werr := d.Ctx.IndexIO.WriteLocked(ctx, d.Ctx.Index); werr != nil {
		return 2, werr
	}
	if cerr := d.Ctx.Lock.Commit(); cerr != nil {
		return 2, cerr
	}
	return code, err
}

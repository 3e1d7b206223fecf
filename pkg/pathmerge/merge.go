package pathmerge

import (
	"context"
	"fmt"

	"github.com/zeta-vcs/zeta-merge/modules/mergeindex"
	"github.com/zeta-vcs/zeta-merge/modules/objectid"
	"github.com/zeta-vcs/zeta-merge/pkg/report"
)

// Merger is the PathMerger: one operation, merge_path, dispatched once
// per unmerged path by the index walker.
type Merger struct {
	Store    ObjectStore
	Lines    LineMerger
	Worktree WorktreeWriter
	Reporter *report.Reporter

	// Style, when set, resolves the conflict-hunk rendering for path —
	// normally internal/mergeconf.Config.StyleFor adapted to a plain
	// string. Only consulted when Lines also implements
	// StyledLineMerger; otherwise Lines.MergeText's own default applies.
	Style func(path string) string

	// Outcomes accumulates every non-nil Outcome produced by MergePath
	// across an entire driver invocation, in call order — the source
	// pkg/report's JSON conflict reporting reads from after a walk
	// completes, since indexwalker.Callback itself only returns a bool.
	Outcomes []*Outcome
}

// MergePath is merge_path(ctx, PathMergeInput) -> Result<(), Error>.
// It mutates index in place and returns the tagged outcome alongside a
// non-nil error for every conflict kind other than Clean. Every
// produced Outcome is also appended to m.Outcomes.
func (m *Merger) MergePath(ctx context.Context, index *mergeindex.Index, in *Input) (*Outcome, error) {
	out, err := m.mergePath(ctx, index, in)
	if out != nil {
		m.Outcomes = append(m.Outcomes, out)
	}
	return out, err
}

func (m *Merger) mergePath(ctx context.Context, index *mergeindex.Index, in *Input) (*Outcome, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	o, u, t := in.Orig.present(), in.Ours.present(), in.Theirs.present()

	switch {
	case o && !u && !t:
		index.Remove(in.Path)
		return &Outcome{Kind: Clean, Path: in.Path}, nil

	case o && u && !t:
		return m.deletedOnOneSide(ctx, index, in, in.Ours, "ours")

	case o && !u && t:
		return m.deletedOnOneSide(ctx, index, in, in.Theirs, "theirs")

	case o && u && t:
		return m.contentMerge(ctx, index, in, in.Orig)

	case !o && u && !t:
		m.addStage0(index, in.Path, in.Ours)
		return &Outcome{Kind: Clean, Path: in.Path}, nil

	case !o && !u && t:
		untracked, err := m.Worktree.HasUntracked(in.Path)
		if err != nil {
			return nil, err
		}
		if untracked {
			out := &Outcome{Kind: UntrackedOverwrite, Path: in.Path}
			m.Reporter.Error(in.Path, "untracked %s is overwritten by the merge", in.Path)
			return out, fmt.Errorf("%w: %s", ErrUntrackedOverwrite, in.Path)
		}
		return m.addAndCheckout(in.Path, in.Theirs, index)

	case !o && u && t:
		return m.addedInBoth(ctx, index, in)

	default:
		return nil, fmt.Errorf("pathmerge: %s has no side present", in.Path)
	}
}

func (m *Merger) deletedOnOneSide(ctx context.Context, index *mergeindex.Index, in *Input, survivor *BlobRef, which string) (*Outcome, error) {
	if !sameMode(in.Orig, survivor) {
		m.Reporter.Error(in.Path, "changed in %s but deleted on the other side", which)
		return &Outcome{Kind: DeletedModified, Path: in.Path, Which: which},
			fmt.Errorf("%w: %s", ErrDeletedModified, in.Path)
	}
	removed, err := m.removeWorktreeIfPresent(in.Path)
	if err != nil {
		return nil, err
	}
	if which == "ours" || removed {
		m.Reporter.Progress("Removing %s", in.Path)
	}
	index.Remove(in.Path)
	return &Outcome{Kind: Clean, Path: in.Path}, nil
}

func (m *Merger) removeWorktreeIfPresent(path string) (bool, error) {
	present, err := m.Worktree.HasUntracked(path)
	if err != nil {
		return false, err
	}
	if err := m.Worktree.Remove(path); err != nil {
		return false, err
	}
	return present, nil
}

func (m *Merger) addStage0(index *mergeindex.Index, path string, ref *BlobRef) {
	index.Replace(path, &mergeindex.CacheEntry{Path: path, OID: ref.OID, Mode: ref.Mode, Stage: mergeindex.Merged})
}

func (m *Merger) addAndCheckout(path string, ref *BlobRef, index *mergeindex.Index) (*Outcome, error) {
	content, err := m.Store.ReadBlob(ref.OID)
	if err != nil {
		return nil, err
	}
	if err := m.Worktree.Write(path, ref.Mode, content); err != nil {
		return nil, err
	}
	m.addStage0(index, path, ref)
	m.Reporter.Progress("Adding %s", path)
	return &Outcome{Kind: Clean, Path: path}, nil
}

func (m *Merger) addedInBoth(ctx context.Context, index *mergeindex.Index, in *Input) (*Outcome, error) {
	if sameMode(in.Ours, in.Theirs) && sameContent(in.Ours, in.Theirs) {
		return m.addAndCheckout(in.Path, in.Ours, index)
	}
	if !sameMode(in.Ours, in.Theirs) {
		m.Reporter.Error(in.Path, "file mode differs between added-in-both sides")
		return &Outcome{Kind: PermissionConflict, Path: in.Path, Ours: in.Ours, Theirs: in.Theirs},
			fmt.Errorf("%w: %s", ErrPermissionConflict, in.Path)
	}
	m.Reporter.Progress("Added %s in both, but differently.", in.Path)
	empty := &BlobRef{OID: objectid.EmptyBlob, Mode: in.Ours.Mode}
	return m.threeWayMerge(ctx, index, in.Path, empty, in.Ours, in.Theirs, true)
}

func (m *Merger) contentMerge(ctx context.Context, index *mergeindex.Index, in *Input, orig *BlobRef) (*Outcome, error) {
	return m.threeWayMerge(ctx, index, in.Path, orig, in.Ours, in.Theirs, false)
}

// threeWayMerge implements §4.1.1: symlink/submodule refusal, blob
// materialization, line-merge invocation, atomic worktree replace, and
// the post-merge stage-0/conflict decision.
func (m *Merger) threeWayMerge(ctx context.Context, index *mergeindex.Index, path string, orig, ours, theirs *BlobRef, syntheticOrig bool) (*Outcome, error) {
	if ours.Mode.IsSymlink() || theirs.Mode.IsSymlink() {
		m.Reporter.Error(path, "not merging symbolic link changes.")
		return &Outcome{Kind: TypeConflict, Path: path, TypeKind: TypeConflictSymlink},
			fmt.Errorf("%w: %s", ErrTypeConflict, path)
	}
	if ours.Mode.IsGitlink() || theirs.Mode.IsGitlink() {
		m.Reporter.Error(path, "not merging submodule changes.")
		return &Outcome{Kind: TypeConflict, Path: path, TypeKind: TypeConflictSubmodule},
			fmt.Errorf("%w: %s", ErrTypeConflict, path)
	}
	if ours.Mode.IsFragments() || theirs.Mode.IsFragments() {
		m.Reporter.Error(path, "refusing to merge binary or oversized content.")
		m.stageConflict(index, path, orig, ours, theirs)
		return &Outcome{Kind: ConflictBinary, Path: path, Orig: orig, Ours: ours, Theirs: theirs},
			fmt.Errorf("%w: %s", ErrBinaryConflict, path)
	}

	origBytes := []byte{}
	var err error
	if !syntheticOrig && !orig.OID.IsZero() {
		if origBytes, err = m.Store.ReadBlob(orig.OID); err != nil {
			return nil, err
		}
	}
	oursBytes, err := m.Store.ReadBlob(ours.OID)
	if err != nil {
		return nil, err
	}
	theirsBytes, err := m.Store.ReadBlob(theirs.OID)
	if err != nil {
		return nil, err
	}

	merged, status, err := m.mergeLines(origBytes, oursBytes, theirsBytes, "our", "their", path)
	if err != nil || status < 0 {
		return nil, fmt.Errorf("pathmerge: %s: line merge failed: %w", path, err)
	}

	stageMode := ours.Mode
	if err := m.Worktree.Remove(path); err != nil {
		return nil, err
	}
	if err := m.Worktree.Write(path, stageMode, merged); err != nil {
		return nil, err
	}

	if status > 0 || syntheticOrig {
		m.Reporter.Progress("Auto-merging %s", path)
		out := &Outcome{Kind: ContentConflict, Path: path, Orig: orig, Ours: ours, Theirs: theirs}
		retErr := fmt.Errorf("%w: %s", ErrContentConflict, path)
		if !sameMode(ours, theirs) {
			m.Reporter.Error(path, "permission conflict: %s vs %s", ours.Mode, theirs.Mode)
			m.Outcomes = append(m.Outcomes, out)
			return &Outcome{Kind: PermissionConflict, Path: path, Ours: ours, Theirs: theirs}, retErr
		}
		m.stageConflict(index, path, orig, ours, theirs)
		return out, retErr
	}

	if !sameMode(ours, theirs) {
		m.Reporter.Error(path, "permission conflict: %s vs %s", ours.Mode, theirs.Mode)
		return &Outcome{Kind: PermissionConflict, Path: path, Ours: ours, Theirs: theirs},
			fmt.Errorf("%w: %s", ErrPermissionConflict, path)
	}

	m.Reporter.Progress("Auto-merging %s", path)
	index.Replace(path, &mergeindex.CacheEntry{Path: path, OID: objectid.Of(merged), Mode: stageMode, Stage: mergeindex.Merged})
	return &Outcome{Kind: Clean, Path: path}, nil
}

// mergeLines resolves Style for path and, if Lines supports it, calls
// the styled variant; otherwise it falls back to the plain LineMerger
// contract (and the engine's own hardcoded default).
func (m *Merger) mergeLines(orig, ours, theirs []byte, labelOurs, labelTheirs, path string) ([]byte, int, error) {
	if m.Style != nil {
		if sl, ok := m.Lines.(StyledLineMerger); ok {
			return sl.MergeTextStyled(orig, ours, theirs, labelOurs, labelTheirs, m.Style(path))
		}
	}
	return m.Lines.MergeText(orig, ours, theirs, labelOurs, labelTheirs)
}

func (m *Merger) stageConflict(index *mergeindex.Index, path string, orig, ours, theirs *BlobRef) {
	index.Remove(path)
	if orig != nil {
		index.Add(&mergeindex.CacheEntry{Path: path, OID: orig.OID, Mode: orig.Mode, Stage: mergeindex.Ancestor})
	}
	index.Add(&mergeindex.CacheEntry{Path: path, OID: ours.OID, Mode: ours.Mode, Stage: mergeindex.Ours})
	index.Add(&mergeindex.CacheEntry{Path: path, OID: theirs.OID, Mode: theirs.Mode, Stage: mergeindex.Theirs})
}

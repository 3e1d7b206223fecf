// Package indexwalker scans a staged index, groups unmerged
// stage-1/2/3 entries by path, and dispatches each group to a
// pluggable merge callback — either the in-process PathMerger or an
// ExternalProgramCallback shelling out to a user-supplied program.
package indexwalker

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeta-vcs/zeta-merge/modules/mergeindex"
)

// ErrNotInCache is the fatal setup error: a path was dispatched but no
// unmerged entry could be found for it.
var ErrNotInCache = errors.New("indexwalker: path not in cache")

// Callback is the merge-callback signature: cb(orig, ours, theirs,
// path). A nil entry means that stage was absent. A true return (or
// non-nil err with no higher severity) is a hand-resolvable conflict
// recorded by the caller.
type Callback func(ctx context.Context, path string, orig, ours, theirs *mergeindex.CacheEntry) (conflict bool, err error)

// Walker is the IndexWalker.
type Walker struct {
	Callback Callback
}

func New(cb Callback) *Walker {
	return &Walker{Callback: cb}
}

// MergeOnePath implements merge_one_path: locate path, no-op if
// already merged (stage 0), else dispatch the unmerged group.
func (w *Walker) MergeOnePath(ctx context.Context, index *mergeindex.Index, path string) (conflict bool, err error) {
	entries := index.EntriesAt(path)
	if len(entries) == 0 {
		return false, fmt.Errorf("%w: %s", ErrNotInCache, path)
	}
	var byStage [4]*mergeindex.CacheEntry
	found := false
	for _, e := range entries {
		if e.Stage == mergeindex.Merged {
			return false, nil
		}
		byStage[e.Stage] = e
		found = true
	}
	if !found {
		return false, fmt.Errorf("%w: %s", ErrNotInCache, path)
	}
	return w.Callback(ctx, path, byStage[mergeindex.Ancestor], byStage[mergeindex.Ours], byStage[mergeindex.Theirs])
}

// MergeAll implements merge_all: a linear scan of the index, skipping
// stage-0 entries, dispatching each unmerged run exactly once and
// advancing the cursor past the k entries (1<=k<=3) just consumed.
//
// oneshot controls abort-vs-count semantics: with oneshot=false, the
// first conflict aborts the walk with the accumulated count so far
// plus that conflict; with oneshot=true every conflict is counted and
// the walk runs to completion.
func (w *Walker) MergeAll(ctx context.Context, index *mergeindex.Index, oneshot bool) (int, error) {
	index.Sort()
	conflicts := 0
	entries := append([]*mergeindex.CacheEntry(nil), index.Entries...)
	i := 0
	for i < len(entries) {
		e := entries[i]
		if e.Stage == mergeindex.Merged {
			i++
			continue
		}
		path := e.Path
		var byStage [4]*mergeindex.CacheEntry
		j := i
		for j < len(entries) && entries[j].Path == path {
			if entries[j].Stage != mergeindex.Merged {
				byStage[entries[j].Stage] = entries[j]
			}
			j++
		}
		hasConflict, err := w.Callback(ctx, path, byStage[mergeindex.Ancestor], byStage[mergeindex.Ours], byStage[mergeindex.Theirs])
		if err != nil && !errors.Is(err, ErrNotInCache) {
			// Per-path conflict errors are accumulated, not fatal — see
			// the taxonomy in the driver layer.
			hasConflict = true
		} else if err != nil {
			return -1, err
		}
		if hasConflict {
			conflicts++
			if !oneshot {
				return conflicts, nil
			}
		}
		i = j
	}
	return conflicts, nil
}

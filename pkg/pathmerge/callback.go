package pathmerge

import (
	"context"

	"github.com/zeta-vcs/zeta-merge/modules/mergeindex"
)

func toBlobRef(e *mergeindex.CacheEntry) *BlobRef {
	if e == nil {
		return nil
	}
	return &BlobRef{OID: e.OID, Mode: e.Mode}
}

// AsCallback adapts Merger.MergePath to the indexwalker.Callback
// signature, converting staged cache entries to the BlobRef-based
// PathMergeInput the decision table operates over.
func (m *Merger) AsCallback(index *mergeindex.Index) func(ctx context.Context, path string, orig, ours, theirs *mergeindex.CacheEntry) (bool, error) {
	return func(ctx context.Context, path string, orig, ours, theirs *mergeindex.CacheEntry) (bool, error) {
		in := &Input{
			Path:   path,
			Orig:   toBlobRef(orig),
			Ours:   toBlobRef(ours),
			Theirs: toBlobRef(theirs),
		}
		outcome, err := m.MergePath(ctx, index, in)
		if outcome != nil && outcome.IsConflict() {
			return true, nil
		}
		return false, err
	}
}

package indexwalker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeta-vcs/zeta-merge/modules/mergeindex"
	"github.com/zeta-vcs/zeta-merge/modules/objectid"
)

func unmergedEntry(path string, stage mergeindex.Stage) *mergeindex.CacheEntry {
	return &mergeindex.CacheEntry{Path: path, Stage: stage, OID: objectid.Of([]byte(path))}
}

func TestMergeOnePath_AlreadyMergedIsNoop(t *testing.T) {
	ix := &mergeindex.Index{}
	ix.Add(&mergeindex.CacheEntry{Path: "f.txt", Stage: mergeindex.Merged})
	called := false
	w := New(func(ctx context.Context, path string, orig, ours, theirs *mergeindex.CacheEntry) (bool, error) {
		called = true
		return false, nil
	})
	conflict, err := w.MergeOnePath(context.Background(), ix, "f.txt")
	require.NoError(t, err)
	assert.False(t, conflict)
	assert.False(t, called)
}

func TestMergeOnePath_NotInCache(t *testing.T) {
	ix := &mergeindex.Index{}
	w := New(func(ctx context.Context, path string, orig, ours, theirs *mergeindex.CacheEntry) (bool, error) {
		return false, nil
	})
	_, err := w.MergeOnePath(context.Background(), ix, "missing.txt")
	assert.ErrorIs(t, err, ErrNotInCache)
}

func TestMergeOnePath_DispatchesByStage(t *testing.T) {
	ix := &mergeindex.Index{}
	ix.Add(unmergedEntry("f.txt", mergeindex.Ancestor))
	ix.Add(unmergedEntry("f.txt", mergeindex.Ours))
	ix.Add(unmergedEntry("f.txt", mergeindex.Theirs))

	var gotOrig, gotOurs, gotTheirs *mergeindex.CacheEntry
	w := New(func(ctx context.Context, path string, orig, ours, theirs *mergeindex.CacheEntry) (bool, error) {
		gotOrig, gotOurs, gotTheirs = orig, ours, theirs
		return false, nil
	})
	conflict, err := w.MergeOnePath(context.Background(), ix, "f.txt")
	require.NoError(t, err)
	assert.False(t, conflict)
	require.NotNil(t, gotOrig)
	require.NotNil(t, gotOurs)
	require.NotNil(t, gotTheirs)
}

func TestMergeAll_OneshotFalseAbortsOnFirstConflict(t *testing.T) {
	ix := &mergeindex.Index{}
	ix.Add(unmergedEntry("a.txt", mergeindex.Ours))
	ix.Add(unmergedEntry("a.txt", mergeindex.Theirs))
	ix.Add(unmergedEntry("b.txt", mergeindex.Ours))
	ix.Add(unmergedEntry("b.txt", mergeindex.Theirs))

	var seen []string
	w := New(func(ctx context.Context, path string, orig, ours, theirs *mergeindex.CacheEntry) (bool, error) {
		seen = append(seen, path)
		return true, nil
	})
	conflicts, err := w.MergeAll(context.Background(), ix, false)
	require.NoError(t, err)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, []string{"a.txt"}, seen)
}

func TestMergeAll_OneshotTrueCountsAll(t *testing.T) {
	ix := &mergeindex.Index{}
	ix.Add(unmergedEntry("a.txt", mergeindex.Ours))
	ix.Add(unmergedEntry("a.txt", mergeindex.Theirs))
	ix.Add(unmergedEntry("b.txt", mergeindex.Ours))
	ix.Add(unmergedEntry("b.txt", mergeindex.Theirs))
	ix.Add(&mergeindex.CacheEntry{Path: "c.txt", Stage: mergeindex.Merged})

	var seen []string
	w := New(func(ctx context.Context, path string, orig, ours, theirs *mergeindex.CacheEntry) (bool, error) {
		seen = append(seen, path)
		return true, nil
	})
	conflicts, err := w.MergeAll(context.Background(), ix, true)
	require.NoError(t, err)
	assert.Equal(t, 2, conflicts)
	assert.Equal(t, []string{"a.txt", "b.txt"}, seen)
}

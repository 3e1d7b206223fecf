package collab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeta-vcs/zeta-merge/modules/objectid"
)

func TestMergeBasesMany_SiblingBranchesShareRoot(t *testing.T) {
	store := NewMemoryStore()
	root := &CommitRef{ID: objectid.Of([]byte("root"))}
	store.PutCommit(root)
	a := &CommitRef{ID: objectid.Of([]byte("a")), Parents: []objectid.ID{root.ID}}
	store.PutCommit(a)
	b := &CommitRef{ID: objectid.Of([]byte("b")), Parents: []objectid.ID{root.ID}}
	store.PutCommit(b)

	bases, err := store.MergeBasesMany(context.Background(), a.ID, []objectid.ID{b.ID})
	require.NoError(t, err)
	require.Len(t, bases, 1)
	assert.Equal(t, root.ID, bases[0])
}

func TestMergeBasesMany_SelfIsOwnBase(t *testing.T) {
	store := NewMemoryStore()
	a := &CommitRef{ID: objectid.Of([]byte("a"))}
	store.PutCommit(a)

	bases, err := store.MergeBasesMany(context.Background(), a.ID, []objectid.ID{a.ID})
	require.NoError(t, err)
	require.Len(t, bases, 1)
	assert.Equal(t, a.ID, bases[0])
}

func TestMergeBasesMany_Unrelated(t *testing.T) {
	store := NewMemoryStore()
	a := &CommitRef{ID: objectid.Of([]byte("a"))}
	store.PutCommit(a)
	b := &CommitRef{ID: objectid.Of([]byte("b"))}
	store.PutCommit(b)

	bases, err := store.MergeBasesMany(context.Background(), a.ID, []objectid.ID{b.ID})
	require.NoError(t, err)
	assert.Empty(t, bases)
}

func TestMemoryStore_ReadBlobZeroAndEmptyAreNil(t *testing.T) {
	store := NewMemoryStore()
	b, err := store.ReadBlob(context.Background(), objectid.Zero)
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = store.ReadBlob(context.Background(), objectid.EmptyBlob)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestMemoryStore_ParseTreeEmptyTreeAlwaysResolves(t *testing.T) {
	store := NewMemoryStore()
	tr, err := store.ParseTree(context.Background(), store.EmptyTreeID())
	require.NoError(t, err)
	assert.Empty(t, tr.Entries)
}

func TestMemoryWorktree_WriteClearsUntracked(t *testing.T) {
	wt := NewMemoryWorktree()
	wt.MarkUntracked("f.txt")
	untracked, err := wt.HasUntracked("f.txt")
	require.NoError(t, err)
	assert.True(t, untracked)

	require.NoError(t, wt.Write("f.txt", 0, []byte("content")))
	untracked, err = wt.HasUntracked("f.txt")
	require.NoError(t, err)
	assert.False(t, untracked)

	got, ok := wt.Get("f.txt")
	require.True(t, ok)
	assert.Equal(t, "content", string(got))
}

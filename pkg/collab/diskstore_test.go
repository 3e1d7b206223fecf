package collab

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeta-vcs/zeta-merge/modules/objectid"
)

func TestFileObjectStore_BlobRoundTrip(t *testing.T) {
	store := NewFileObjectStore(t.TempDir())
	id, err := store.PutBlob([]byte("hello world"))
	require.NoError(t, err)

	got, err := store.ReadBlob(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
}

func TestFileObjectStore_BlobWriteIsIdempotent(t *testing.T) {
	root := t.TempDir()
	store := NewFileObjectStore(root)
	id1, err := store.PutBlob([]byte("same content"))
	require.NoError(t, err)
	id2, err := store.PutBlob([]byte("same content"))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestFileObjectStore_TreeRoundTrip(t *testing.T) {
	store := NewFileObjectStore(t.TempDir())
	blobID, err := store.PutBlob([]byte("content"))
	require.NoError(t, err)

	entries := []TreeEntry{{Path: "a.txt", OID: blobID, Mode: 0o100644}}
	treeID, err := store.WriteTree(entries)
	require.NoError(t, err)

	tree, err := store.ParseTree(context.Background(), treeID)
	require.NoError(t, err)
	require.Len(t, tree.Entries, 1)
	assert.Equal(t, "a.txt", tree.Entries[0].Path)
	assert.Equal(t, blobID, tree.Entries[0].OID)
}

func TestFileObjectStore_EmptyTreeIDDoesNotRequireDiskRead(t *testing.T) {
	store := NewFileObjectStore(t.TempDir())
	tree, err := store.ParseTree(context.Background(), store.EmptyTreeID())
	require.NoError(t, err)
	assert.Empty(t, tree.Entries)
}

func TestFileObjectStore_CommitRoundTrip(t *testing.T) {
	store := NewFileObjectStore(t.TempDir())
	blobID, err := store.PutBlob([]byte("x"))
	require.NoError(t, err)
	treeID, err := store.WriteTree([]TreeEntry{{Path: "x.txt", OID: blobID, Mode: 0o100644}})
	require.NoError(t, err)

	parentID := objectid.Of([]byte("parent"))
	commit := &CommitRef{ID: objectid.Of([]byte("commit-1")), TreeID: treeID, Parents: []objectid.ID{parentID}}
	require.NoError(t, store.PutCommit(commit))

	got, err := store.ParseCommit(context.Background(), commit.ID)
	require.NoError(t, err)
	assert.Equal(t, treeID, got.TreeID)
	assert.Equal(t, []objectid.ID{parentID}, got.Parents)
}

func TestFileObjectStore_ReadBlobMissingIsError(t *testing.T) {
	store := NewFileObjectStore(t.TempDir())
	_, err := store.ReadBlob(context.Background(), objectid.Of([]byte("never written")))
	assert.Error(t, err)
}

func TestFileObjectStore_ObjectPathFansOutByFirstTwoHexChars(t *testing.T) {
	store := NewFileObjectStore("/root-objects")
	id := objectid.Of([]byte("anything"))
	hexID := id.String()
	assert.Equal(t, filepath.Join("/root-objects", hexID[:2], hexID[2:]), store.objectPath(id))
}

func TestFileObjectStore_MergeBasesManyFindsCommonAncestor(t *testing.T) {
	store := NewFileObjectStore(t.TempDir())
	root := &CommitRef{ID: objectid.Of([]byte("root"))}
	require.NoError(t, store.PutCommit(root))

	left := &CommitRef{ID: objectid.Of([]byte("left")), Parents: []objectid.ID{root.ID}}
	right := &CommitRef{ID: objectid.Of([]byte("right")), Parents: []objectid.ID{root.ID}}
	require.NoError(t, store.PutCommit(left))
	require.NoError(t, store.PutCommit(right))

	bases, err := store.MergeBasesMany(context.Background(), left.ID, []objectid.ID{right.ID})
	require.NoError(t, err)
	require.Len(t, bases, 1)
	assert.Equal(t, root.ID, bases[0])
}

package collab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeta-vcs/zeta-merge/modules/filemode"
	"github.com/zeta-vcs/zeta-merge/modules/mergeindex"
	"github.com/zeta-vcs/zeta-merge/modules/objectid"
)

func TestMemoryIndexIO_WriteAsTree_UnmergedBlocksWithoutError(t *testing.T) {
	store := NewMemoryStore()
	io := NewMemoryIndexIO(store)
	ix := mergeindex.New()
	ix.Add(&mergeindex.CacheEntry{Path: "f.txt", Mode: filemode.Regular, Stage: mergeindex.Ours, OID: objectid.Of([]byte("ours"))})
	ix.Add(&mergeindex.CacheEntry{Path: "f.txt", Mode: filemode.Regular, Stage: mergeindex.Theirs, OID: objectid.Of([]byte("theirs"))})

	id, ok, err := io.WriteAsTree(context.Background(), ix, false)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, objectid.Zero, id)
}

func TestMemoryIndexIO_WriteAsTree_EmptyIndexIsEmptyTree(t *testing.T) {
	store := NewMemoryStore()
	io := NewMemoryIndexIO(store)
	ix := mergeindex.New()

	id, ok, err := io.WriteAsTree(context.Background(), ix, false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, store.EmptyTreeID(), id)
}

func TestMemoryIndexIO_WriteAsTree_MergedEntriesProduceDeterministicTree(t *testing.T) {
	store := NewMemoryStore()
	io := NewMemoryIndexIO(store)
	ix := mergeindex.New()
	ix.Add(&mergeindex.CacheEntry{Path: "a.txt", Mode: filemode.Regular, Stage: mergeindex.Merged, OID: objectid.Of([]byte("a"))})
	ix.Add(&mergeindex.CacheEntry{Path: "b.txt", Mode: filemode.Regular, Stage: mergeindex.Merged, OID: objectid.Of([]byte("b"))})

	id1, ok, err := io.WriteAsTree(context.Background(), ix, false)
	require.NoError(t, err)
	require.True(t, ok)

	tr, err := store.ParseTree(context.Background(), id1)
	require.NoError(t, err)
	require.Len(t, tr.Entries, 2)

	ix2 := mergeindex.New()
	ix2.Add(&mergeindex.CacheEntry{Path: "a.txt", Mode: filemode.Regular, Stage: mergeindex.Merged, OID: objectid.Of([]byte("a"))})
	ix2.Add(&mergeindex.CacheEntry{Path: "b.txt", Mode: filemode.Regular, Stage: mergeindex.Merged, OID: objectid.Of([]byte("b"))})
	id2, _, err := io.WriteAsTree(context.Background(), ix2, false)
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "identical merged index contents must hash to the same tree id")
}

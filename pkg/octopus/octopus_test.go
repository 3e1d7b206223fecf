package octopus

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeta-vcs/zeta-merge/internal/diff3merge"
	"github.com/zeta-vcs/zeta-merge/modules/filemode"
	"github.com/zeta-vcs/zeta-merge/modules/mergeindex"
	"github.com/zeta-vcs/zeta-merge/modules/objectid"
	"github.com/zeta-vcs/zeta-merge/pkg/collab"
	"github.com/zeta-vcs/zeta-merge/pkg/mergectx"
	"github.com/zeta-vcs/zeta-merge/pkg/pathmerge"
	"github.com/zeta-vcs/zeta-merge/pkg/report"
)

type storeAdapter struct{ store *collab.MemoryStore }

func (a storeAdapter) ReadBlob(id objectid.ID) ([]byte, error) {
	return a.store.ReadBlob(context.Background(), id)
}

func newDriver(t *testing.T, store *collab.MemoryStore, wt *collab.MemoryWorktree) *Driver {
	t.Helper()
	ctx := &mergectx.Context{
		Store:       store,
		UnpackTrees: collab.NewMemoryUnpackTrees(store),
		MergeBases:  store,
		IndexIO:     collab.NewMemoryIndexIO(store),
		Index:       mergeindex.New(),
		IndexPath:   filepath.Join(t.TempDir(), "index"),
		Reporter:    report.New(&bytes.Buffer{}, &bytes.Buffer{}, false),
	}
	merger := &pathmerge.Merger{
		Store:    storeAdapter{store},
		Lines:    diff3merge.Engine{},
		Worktree: wt,
		Reporter: ctx.Reporter,
	}
	return New(ctx, merger)
}

func commitWithTree(store *collab.MemoryStore, parents []objectid.ID, entries ...collab.TreeEntry) *collab.CommitRef {
	h := objectid.NewHasher()
	for _, e := range entries {
		_, _ = h.Write([]byte(e.Path))
		_, _ = h.Write(e.OID[:])
	}
	treeID := h.Sum()
	store.PutTree(&collab.Tree{ID: treeID, Entries: entries})

	ch := objectid.NewHasher()
	_, _ = ch.Write(treeID[:])
	for _, p := range parents {
		_, _ = ch.Write(p[:])
	}
	commitID := ch.Sum()
	c := &collab.CommitRef{ID: commitID, TreeID: treeID, Parents: parents}
	store.PutCommit(c)
	return c
}

func TestOctopus_RejectsFewerThanTwoRemotes(t *testing.T) {
	store := collab.NewMemoryStore()
	wt := collab.NewMemoryWorktree()
	d := newDriver(t, store, wt)

	base := commitWithTree(store, nil)
	code, err := d.Run(context.Background(), &Inputs{Head: base, Remotes: []*collab.CommitRef{base}})
	assert.Error(t, err)
	assert.Equal(t, 2, code)
}

func TestOctopus_FastForwardThenSimpleMergeOfIndependentRemotes(t *testing.T) {
	store := collab.NewMemoryStore()
	wt := collab.NewMemoryWorktree()
	d := newDriver(t, store, wt)

	baseBlob := store.PutBlob([]byte("root\n"))
	base := commitWithTree(store, nil, collab.TreeEntry{Path: "root.txt", OID: baseBlob, Mode: uint32(filemode.Regular)})

	r1Blob := store.PutBlob([]byte("remote one\n"))
	remote1 := commitWithTree(store, []objectid.ID{base.ID},
		collab.TreeEntry{Path: "root.txt", OID: baseBlob, Mode: uint32(filemode.Regular)},
		collab.TreeEntry{Path: "r1.txt", OID: r1Blob, Mode: uint32(filemode.Regular)},
	)
	r2Blob := store.PutBlob([]byte("remote two\n"))
	remote2 := commitWithTree(store, []objectid.ID{base.ID},
		collab.TreeEntry{Path: "root.txt", OID: baseBlob, Mode: uint32(filemode.Regular)},
		collab.TreeEntry{Path: "r2.txt", OID: r2Blob, Mode: uint32(filemode.Regular)},
	)

	code, err := d.Run(context.Background(), &Inputs{
		Bases:   []*collab.CommitRef{base},
		Head:    base,
		Remotes: []*collab.CommitRef{remote1, remote2},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestOctopus_LastOnlyConflictRuleAbortsEarlierConflict(t *testing.T) {
	store := collab.NewMemoryStore()
	wt := collab.NewMemoryWorktree()
	d := newDriver(t, store, wt)

	baseBlob := store.PutBlob([]byte("line one\nline two\n"))
	base := commitWithTree(store, nil, collab.TreeEntry{Path: "f.txt", OID: baseBlob, Mode: uint32(filemode.Regular)})

	headBlob := store.PutBlob([]byte("HEAD one\nline two\n"))
	head := commitWithTree(store, []objectid.ID{base.ID}, collab.TreeEntry{Path: "f.txt", OID: headBlob, Mode: uint32(filemode.Regular)})

	remote1Blob := store.PutBlob([]byte("REMOTE1 one\nline two\n"))
	remote1 := commitWithTree(store, []objectid.ID{base.ID}, collab.TreeEntry{Path: "f.txt", OID: remote1Blob, Mode: uint32(filemode.Regular)})

	remote2Blob := store.PutBlob([]byte("REMOTE2 one\nline two\n"))
	remote2 := commitWithTree(store, []objectid.ID{base.ID}, collab.TreeEntry{Path: "f.txt", OID: remote2Blob, Mode: uint32(filemode.Regular)})

	code, err := d.Run(context.Background(), &Inputs{
		Bases:   []*collab.CommitRef{base},
		Head:    head,
		Remotes: []*collab.CommitRef{remote1, remote2},
	})
	assert.Error(t, err)
	assert.Equal(t, 2, code)
}

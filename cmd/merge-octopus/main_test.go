package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeta-vcs/zeta-merge/modules/objectid"
	"github.com/zeta-vcs/zeta-merge/pkg/collab"
	"github.com/zeta-vcs/zeta-merge/pkg/report"
)

func commitWithTree(t *testing.T, store *collab.FileObjectStore, parents []objectid.ID, entries ...collab.TreeEntry) *collab.CommitRef {
	t.Helper()
	treeID, err := store.WriteTree(entries)
	require.NoError(t, err)

	h := objectid.NewHasher()
	_, _ = h.Write(treeID[:])
	for _, p := range parents {
		_, _ = h.Write(p[:])
	}
	c := &collab.CommitRef{ID: h.Sum(), TreeID: treeID, Parents: parents}
	require.NoError(t, store.PutCommit(c))
	return c
}

func newTestOpts(t *testing.T, objectsRoot string) *cliOptions {
	t.Helper()
	return &cliOptions{
		indexPath:   filepath.Join(t.TempDir(), "index"),
		configPath:  filepath.Join(t.TempDir(), "missing.toml"),
		objectsRoot: objectsRoot,
		worktree:    t.TempDir(),
	}
}

func TestRunOctopus_CleanMergeOfRemoteChainWritesToRealWorktree(t *testing.T) {
	objectsRoot := t.TempDir()
	store := collab.NewFileObjectStore(objectsRoot)

	baseBlob, err := store.PutBlob([]byte("shared\n"))
	require.NoError(t, err)
	base := commitWithTree(t, store, nil, collab.TreeEntry{Path: "a.txt", OID: baseBlob, Mode: 0o100644})

	head := commitWithTree(t, store, []objectid.ID{base.ID}, collab.TreeEntry{Path: "a.txt", OID: baseBlob, Mode: 0o100644})

	r1Blob, err := store.PutBlob([]byte("remote-one\n"))
	require.NoError(t, err)
	remote1 := commitWithTree(t, store, []objectid.ID{base.ID},
		collab.TreeEntry{Path: "a.txt", OID: baseBlob, Mode: 0o100644},
		collab.TreeEntry{Path: "one.txt", OID: r1Blob, Mode: 0o100644},
	)

	r2Blob, err := store.PutBlob([]byte("remote-two\n"))
	require.NoError(t, err)
	remote2 := commitWithTree(t, store, []objectid.ID{remote1.ID},
		collab.TreeEntry{Path: "a.txt", OID: baseBlob, Mode: 0o100644},
		collab.TreeEntry{Path: "one.txt", OID: r1Blob, Mode: 0o100644},
		collab.TreeEntry{Path: "two.txt", OID: r2Blob, Mode: 0o100644},
	)

	opts := newTestOpts(t, objectsRoot)
	args := []string{base.ID.String(), head.ID.String(), remote1.ID.String(), remote2.ID.String()}
	err = runOctopus(context.Background(), args, 1, opts)
	require.NoError(t, err)

	got, rerr := os.ReadFile(filepath.Join(opts.worktree, "two.txt"))
	require.NoError(t, rerr)
	assert.Equal(t, "remote-two\n", string(got))
}

func TestRunOctopus_ConflictOnFinalRemoteEmitsJSONReport(t *testing.T) {
	objectsRoot := t.TempDir()
	store := collab.NewFileObjectStore(objectsRoot)

	baseBlob, err := store.PutBlob([]byte("line one\nline two\n"))
	require.NoError(t, err)
	base := commitWithTree(t, store, nil, collab.TreeEntry{Path: "f.txt", OID: baseBlob, Mode: 0o100644})

	head := commitWithTree(t, store, []objectid.ID{base.ID}, collab.TreeEntry{Path: "f.txt", OID: baseBlob, Mode: 0o100644})

	r1Blob, err := store.PutBlob([]byte("line one HEAD\nline two\n"))
	require.NoError(t, err)
	remote1 := commitWithTree(t, store, []objectid.ID{base.ID}, collab.TreeEntry{Path: "f.txt", OID: r1Blob, Mode: 0o100644})

	r2Blob, err := store.PutBlob([]byte("line one REMOTE\nline two\n"))
	require.NoError(t, err)
	remote2 := commitWithTree(t, store, []objectid.ID{base.ID}, collab.TreeEntry{Path: "f.txt", OID: r2Blob, Mode: 0o100644})

	opts := newTestOpts(t, objectsRoot)
	opts.jsonOut = true
	args := []string{base.ID.String(), head.ID.String(), remote1.ID.String(), remote2.ID.String()}

	err = runOctopus(context.Background(), args, 1, opts)
	require.Error(t, err)
	assert.True(t, report.IsExitCode(err, 1))
}

func TestRunOctopus_RejectsFewerThanTwoRemotes(t *testing.T) {
	objectsRoot := t.TempDir()
	store := collab.NewFileObjectStore(objectsRoot)

	baseBlob, err := store.PutBlob([]byte("shared\n"))
	require.NoError(t, err)
	base := commitWithTree(t, store, nil, collab.TreeEntry{Path: "a.txt", OID: baseBlob, Mode: 0o100644})
	head := commitWithTree(t, store, []objectid.ID{base.ID}, collab.TreeEntry{Path: "a.txt", OID: baseBlob, Mode: 0o100644})
	remote := commitWithTree(t, store, []objectid.ID{base.ID}, collab.TreeEntry{Path: "a.txt", OID: baseBlob, Mode: 0o100644})

	opts := newTestOpts(t, objectsRoot)
	args := []string{base.ID.String(), head.ID.String(), remote.ID.String()}
	err = runOctopus(context.Background(), args, 1, opts)
	require.Error(t, err)
	assert.True(t, report.IsExitCode(err, 2))
}

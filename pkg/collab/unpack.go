package collab

import (
	"context"
	"fmt"
	"sort"

	"github.com/zeta-vcs/zeta-merge/modules/filemode"
	"github.com/zeta-vcs/zeta-merge/modules/mergeindex"
	"github.com/zeta-vcs/zeta-merge/modules/objectid"
)

// MemoryUnpackTrees is a minimal n-way index reconciler backed by any
// ObjectStore (the in-memory MemoryStore for tests, or FileObjectStore
// for a real on-disk invocation — the name predates the generalization
// but the reconciliation logic never assumed an in-memory backing). The
// three-way pass always resolves trivial add/delete/unchanged cases
// (Aggressive is not consulted there) and leaves genuine conflicts as
// stage-1/2/3 entries for the IndexWalker and PathMerger to resolve;
// the two-way pass honors Aggressive (see unpackTwoWay). With more than
// three trees, only the first tree serves as the ancestor: the other
// base trees are parsed but not consulted.
type MemoryUnpackTrees struct {
	Store ObjectStore
}

func NewMemoryUnpackTrees(store ObjectStore) *MemoryUnpackTrees {
	return &MemoryUnpackTrees{Store: store}
}

func toFileMode(m uint32) filemode.FileMode { return filemode.FileMode(m) }

func (u *MemoryUnpackTrees) Unpack(ctx context.Context, index *mergeindex.Index, trees []objectid.ID, opts *UnpackOptions) error {
	if len(trees) == 0 {
		return fmt.Errorf("collab: unpack-trees requires at least one tree")
	}
	parsed := make([]*Tree, len(trees))
	maps := make([]map[string]TreeEntry, len(trees))
	pathSet := make(map[string]struct{})
	for i, id := range trees {
		t, err := u.Store.ParseTree(ctx, id)
		if err != nil {
			return err
		}
		parsed[i] = t
		m := make(map[string]TreeEntry, len(t.Entries))
		for _, e := range t.Entries {
			m[e.Path] = e
			pathSet[e.Path] = struct{}{}
		}
		maps[i] = m
	}
	paths := make([]string, 0, len(pathSet))
	for p := range pathSet {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	index.Entries = index.Entries[:0]
	for _, path := range paths {
		switch len(trees) {
		case 1:
			if e, ok := maps[0][path]; ok {
				index.Add(&mergeindex.CacheEntry{Path: path, OID: e.OID, Mode: toFileMode(e.Mode), Stage: mergeindex.Merged})
			}
		case 2:
			aggressive := opts == nil || opts.Aggressive
			u.unpackTwoWay(index, path, maps[0][path], maps[1][path], mapHas(maps[0], path), mapHas(maps[1], path), aggressive)
		default:
			ancestorIdx, oursIdx, theirsIdx := 0, 1, 2
			if opts != nil && opts.HeadIdx > 0 && opts.HeadIdx < len(trees)-1 {
				oursIdx = opts.HeadIdx
			}
			theirsIdx = len(trees) - 1
			u.unpackThreeWay(index, path,
				maps[ancestorIdx][path], mapHas(maps[ancestorIdx], path),
				maps[oursIdx][path], mapHas(maps[oursIdx], path),
				maps[theirsIdx][path], mapHas(maps[theirsIdx], path))
		}
	}
	return nil
}

func mapHas(m map[string]TreeEntry, path string) bool {
	_, ok := m[path]
	return ok
}

func sameEntry(a, b TreeEntry) bool { return a.OID == b.OID && a.Mode == b.Mode }

// unpackTwoWay resolves a path present in at most two trees ("head" and
// "remote"). When aggressive is false this is a plain fast-forward
// checkout: a path that differs between the two trees unconditionally
// takes the remote side, since a true fast-forward has no divergent
// history to reconcile. When aggressive is true (no common base was
// available to the caller) a genuine difference is left as an
// ours/theirs conflict pair for the walker to resolve.
func (u *MemoryUnpackTrees) unpackTwoWay(index *mergeindex.Index, path string, head, remote TreeEntry, hasHead, hasRemote, aggressive bool) {
	switch {
	case hasHead && hasRemote && sameEntry(head, remote):
		index.Add(&mergeindex.CacheEntry{Path: path, OID: head.OID, Mode: toFileMode(head.Mode), Stage: mergeindex.Merged})
	case hasHead && !hasRemote:
		if aggressive {
			index.Add(&mergeindex.CacheEntry{Path: path, OID: head.OID, Mode: toFileMode(head.Mode), Stage: mergeindex.Merged})
		}
	case !hasHead && hasRemote:
		index.Add(&mergeindex.CacheEntry{Path: path, OID: remote.OID, Mode: toFileMode(remote.Mode), Stage: mergeindex.Merged})
	default:
		if !aggressive {
			index.Add(&mergeindex.CacheEntry{Path: path, OID: remote.OID, Mode: toFileMode(remote.Mode), Stage: mergeindex.Merged})
			return
		}
		if hasHead {
			index.Add(&mergeindex.CacheEntry{Path: path, OID: head.OID, Mode: toFileMode(head.Mode), Stage: mergeindex.Ours})
		}
		if hasRemote {
			index.Add(&mergeindex.CacheEntry{Path: path, OID: remote.OID, Mode: toFileMode(remote.Mode), Stage: mergeindex.Theirs})
		}
	}
}

func (u *MemoryUnpackTrees) unpackThreeWay(index *mergeindex.Index, path string, orig TreeEntry, hasOrig bool, ours TreeEntry, hasOurs bool, theirs TreeEntry, hasTheirs bool) {
	add := func(e TreeEntry, stage mergeindex.Stage) {
		index.Add(&mergeindex.CacheEntry{Path: path, OID: e.OID, Mode: toFileMode(e.Mode), Stage: stage})
	}
	switch {
	case hasOrig && !hasOurs && !hasTheirs:
		// deleted both sides: drop silently.
	case hasOrig && hasOurs && !hasTheirs:
		if sameEntry(orig, ours) {
			// deleted by theirs, unchanged in ours: clean delete.
		} else {
			add(orig, mergeindex.Ancestor)
			add(ours, mergeindex.Ours)
		}
	case hasOrig && !hasOurs && hasTheirs:
		if sameEntry(orig, theirs) {
			// deleted by ours, unchanged in theirs: clean delete.
		} else {
			add(orig, mergeindex.Ancestor)
			add(theirs, mergeindex.Theirs)
		}
	case hasOrig && hasOurs && hasTheirs:
		if sameEntry(ours, theirs) {
			add(ours, mergeindex.Merged)
		} else if sameEntry(orig, ours) {
			add(theirs, mergeindex.Merged)
		} else if sameEntry(orig, theirs) {
			add(ours, mergeindex.Merged)
		} else {
			add(orig, mergeindex.Ancestor)
			add(ours, mergeindex.Ours)
			add(theirs, mergeindex.Theirs)
		}
	case !hasOrig && hasOurs && !hasTheirs:
		add(ours, mergeindex.Merged)
	case !hasOrig && !hasOurs && hasTheirs:
		add(theirs, mergeindex.Merged)
	case !hasOrig && hasOurs && hasTheirs:
		if sameEntry(ours, theirs) {
			add(ours, mergeindex.Merged)
		} else {
			add(ours, mergeindex.Ours)
			add(theirs, mergeindex.Theirs)
		}
	}
}

// Package mergeindex models the in-memory staged index: an ordered
// sequence of cache entries sorted by (path, stage), the unit the
// PathMerger and IndexWalker operate over.
//
// The on-disk format is out of scope here (see pkg/collab.IndexIO) —
// this package is the in-memory model only.
package mergeindex

import (
	"fmt"
	"sort"

	"github.com/zeta-vcs/zeta-merge/modules/filemode"
	"github.com/zeta-vcs/zeta-merge/modules/objectid"
)

// Stage identifies which side of a three-way merge a cache entry
// belongs to. Stage 0 means "merged"; 1/2/3 are ancestor/ours/theirs.
type Stage int

const (
	Merged   Stage = 0
	Ancestor Stage = 1
	Ours     Stage = 2
	Theirs   Stage = 3
)

// CacheEntry is one row of the staged index.
type CacheEntry struct {
	Path  string
	OID   objectid.ID
	Mode  filemode.FileMode
	Stage Stage
	Flags uint32
}

func less(a, b *CacheEntry) bool {
	if a.Path != b.Path {
		return a.Path < b.Path
	}
	return a.Stage < b.Stage
}

// Index is the ordered sequence of cache entries, sorted by (path, stage).
type Index struct {
	Entries []*CacheEntry
}

func New() *Index {
	return &Index{}
}

// Sort restores the (path, stage) invariant ordering.
func (ix *Index) Sort() {
	sort.SliceStable(ix.Entries, func(i, j int) bool {
		return less(ix.Entries[i], ix.Entries[j])
	})
}

// EntriesAt returns the contiguous run of entries for path, using
// binary search on the sorted slice. The returned slice shares storage
// with ix.Entries.
func (ix *Index) EntriesAt(path string) []*CacheEntry {
	lo := sort.Search(len(ix.Entries), func(i int) bool {
		return ix.Entries[i].Path >= path
	})
	hi := lo
	for hi < len(ix.Entries) && ix.Entries[hi].Path == path {
		hi++
	}
	return ix.Entries[lo:hi]
}

// StageZero returns the merged (stage-0) entry for path, if any.
func (ix *Index) StageZero(path string) *CacheEntry {
	for _, e := range ix.EntriesAt(path) {
		if e.Stage == Merged {
			return e
		}
	}
	return nil
}

// Remove deletes every entry for path (all stages).
func (ix *Index) Remove(path string) {
	out := ix.Entries[:0]
	for _, e := range ix.Entries {
		if e.Path != path {
			out = append(out, e)
		}
	}
	ix.Entries = out
}

// Replace removes every entry for path and inserts entry in sorted
// position — the "collapse 1/2/3 into a single stage-0" operation
// PathMerger performs on a successful content merge.
func (ix *Index) Replace(path string, entry *CacheEntry) {
	ix.Remove(path)
	ix.Add(entry)
}

// Add inserts entry in sorted (path, stage) position.
func (ix *Index) Add(entry *CacheEntry) {
	i := sort.Search(len(ix.Entries), func(i int) bool {
		return less(entry, ix.Entries[i]) || !less(ix.Entries[i], entry)
	})
	ix.Entries = append(ix.Entries, nil)
	copy(ix.Entries[i+1:], ix.Entries[i:])
	ix.Entries[i] = entry
}

// Clone returns a deep-enough copy for idempotence comparisons (P3):
// new entry pointers, same field values.
func (ix *Index) Clone() *Index {
	out := &Index{Entries: make([]*CacheEntry, len(ix.Entries))}
	for i, e := range ix.Entries {
		cp := *e
		out.Entries[i] = &cp
	}
	return out
}

// Equal reports whether two indexes have byte-identical entry sets in
// the same order — used by tests asserting P3/P6.
func (ix *Index) Equal(other *Index) bool {
	if len(ix.Entries) != len(other.Entries) {
		return false
	}
	for i, e := range ix.Entries {
		o := other.Entries[i]
		if e.Path != o.Path || e.OID != o.OID || e.Mode != o.Mode || e.Stage != o.Stage || e.Flags != o.Flags {
			return false
		}
	}
	return true
}

func (e *CacheEntry) String() string {
	return fmt.Sprintf("%s %s %d %s", e.Mode, e.OID, e.Stage, e.Path)
}

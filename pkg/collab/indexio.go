package collab

import (
	"context"

	"github.com/zeta-vcs/zeta-merge/modules/mergeindex"
	"github.com/zeta-vcs/zeta-merge/modules/objectid"
)

// MemoryIndexIO is the IndexIO collaborator for the in-memory
// reference implementation: the "disk" is simply the MemoryStore's
// tree table, and WriteAsTree materializes a new Tree object when the
// index is fully merged.
type MemoryIndexIO struct {
	Store *MemoryStore
}

func NewMemoryIndexIO(store *MemoryStore) *MemoryIndexIO {
	return &MemoryIndexIO{Store: store}
}

// Refresh is a no-op for the in-memory worktree: there is no on-disk
// stat cache to reconcile.
func (m *MemoryIndexIO) Refresh(_ context.Context, _ *mergeindex.Index) error {
	return nil
}

// WriteLocked is a no-op beyond sorting: the real commit point is the
// indexlock.Lock the driver holds; this collaborator has no separate
// on-disk index file in the reference implementation.
func (m *MemoryIndexIO) WriteLocked(_ context.Context, index *mergeindex.Index) error {
	index.Sort()
	return nil
}

// WriteAsTree builds and registers a Tree object from the index's
// stage-0 entries. ok is false (no error) if any stage-1/2/3 entry
// remains — the conflict case the driver must fall back to the walker
// for.
func (m *MemoryIndexIO) WriteAsTree(_ context.Context, index *mergeindex.Index, _ bool) (objectid.ID, bool, error) {
	var entries []TreeEntry
	for _, e := range index.Entries {
		if e.Stage != mergeindex.Merged {
			return objectid.Zero, false, nil
		}
		entries = append(entries, TreeEntry{Path: e.Path, OID: e.OID, Mode: uint32(e.Mode)})
	}
	if len(entries) == 0 {
		id := m.Store.EmptyTreeID()
		m.Store.PutTree(&Tree{ID: id})
		return id, true, nil
	}
	// Deterministic content address: hash the sorted (path, oid, mode)
	// tuples, the flat-tree equivalent of hashing serialized tree bytes.
	h := objectid.NewHasher()
	for _, e := range entries {
		_, _ = h.Write([]byte(e.Path))
		_, _ = h.Write(e.OID[:])
		_, _ = h.Write([]byte{byte(e.Mode >> 24), byte(e.Mode >> 16), byte(e.Mode >> 8), byte(e.Mode)})
	}
	id := h.Sum()
	m.Store.PutTree(&Tree{ID: id, Entries: entries})
	return id, true, nil
}

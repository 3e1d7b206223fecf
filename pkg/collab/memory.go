package collab

import (
	"context"
	"fmt"
	"sync"

	"github.com/zeta-vcs/zeta-merge/modules/filemode"
	"github.com/zeta-vcs/zeta-merge/modules/mergeindex"
	"github.com/zeta-vcs/zeta-merge/modules/objectid"
)

// MemoryStore is a minimal in-memory ObjectStore/MergeBases backing,
// enough to drive the Resolve/Octopus CLIs end to end against
// synthetic or pre-loaded history. Commit-graph traversal is grounded
// on a bidirectional BFS merge-base search.
type MemoryStore struct {
	mu      sync.RWMutex
	blobs   map[objectid.ID][]byte
	trees   map[objectid.ID]*Tree
	commits map[objectid.ID]*CommitRef
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs:   make(map[objectid.ID][]byte),
		trees:   make(map[objectid.ID]*Tree),
		commits: make(map[objectid.ID]*CommitRef),
	}
}

func (s *MemoryStore) PutBlob(content []byte) objectid.ID {
	id := objectid.Of(content)
	s.mu.Lock()
	s.blobs[id] = content
	s.mu.Unlock()
	return id
}

func (s *MemoryStore) PutTree(t *Tree) {
	s.mu.Lock()
	s.trees[t.ID] = t
	s.mu.Unlock()
}

func (s *MemoryStore) PutCommit(c *CommitRef) {
	s.mu.Lock()
	s.commits[c.ID] = c
	s.mu.Unlock()
}

func (s *MemoryStore) ParseTree(_ context.Context, id objectid.ID) (*Tree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == s.EmptyTreeID() {
		return &Tree{ID: id}, nil
	}
	t, ok := s.trees[id]
	if !ok {
		return nil, fmt.Errorf("collab: tree %s not found", id)
	}
	return t, nil
}

func (s *MemoryStore) ParseCommit(_ context.Context, id objectid.ID) (*CommitRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.commits[id]
	if !ok {
		return nil, fmt.Errorf("collab: commit %s not found", id)
	}
	return c, nil
}

func (s *MemoryStore) ReadBlob(_ context.Context, id objectid.ID) ([]byte, error) {
	if id == objectid.EmptyBlob || id.IsZero() {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[id]
	if !ok {
		return nil, fmt.Errorf("collab: blob %s not found", id)
	}
	return b, nil
}

func (s *MemoryStore) EmptyTreeID() objectid.ID { return objectid.EmptyTree }

// parents looks up a commit's parent list for the shared bidirectional
// BFS in mergebase.go.
func (s *MemoryStore) parents(id objectid.ID) ([]objectid.ID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.commits[id]
	if !ok {
		return nil, false
	}
	return c.Parents, true
}

// MergeBasesMany reduces merge-bases-many(commit, commits) to the
// pairwise merge base of commit against each element of commits,
// deduplicated.
func (s *MemoryStore) MergeBasesMany(_ context.Context, commit objectid.ID, commits []objectid.ID) ([]objectid.ID, error) {
	return mergeBasesMany(commit, commits, s.parents), nil
}

// MemoryWorktree is a minimal in-memory WorktreeWriter backing for the
// reference implementation's checkout/merge-write path.
type MemoryWorktree struct {
	mu        sync.Mutex
	files     map[string][]byte
	untracked map[string]bool
}

func NewMemoryWorktree() *MemoryWorktree {
	return &MemoryWorktree{files: make(map[string][]byte), untracked: make(map[string]bool)}
}

func (w *MemoryWorktree) MarkUntracked(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.untracked[path] = true
}

func (w *MemoryWorktree) Remove(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.files, path)
	return nil
}

func (w *MemoryWorktree) Write(path string, _ filemode.FileMode, content []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[path] = content
	delete(w.untracked, path)
	return nil
}

func (w *MemoryWorktree) HasUntracked(path string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.untracked[path], nil
}

func (w *MemoryWorktree) Get(path string) ([]byte, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.files[path]
	return b, ok
}

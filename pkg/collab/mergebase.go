package collab

import (
	"container/heap"

	"github.com/zeta-vcs/zeta-merge/modules/objectid"
)

// bfsItem/commitHeap order commits for the bidirectional BFS;
// newest-first is not tracked here (no commit timestamps in this
// minimal model). Every item has the same priority, so the heap never
// reorders: Pop takes the item at index 0 and moves the last item into
// its place. Shared by every ObjectStore-backed MergeBases
// collaborator in this package.
type bfsItem struct {
	id objectid.ID
}

type commitHeap []bfsItem

func (h commitHeap) Len() int            { return len(h) }
func (h commitHeap) Less(i, j int) bool  { return false }
func (h commitHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *commitHeap) Push(x interface{}) { *h = append(*h, x.(bfsItem)) }
func (h *commitHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// mergeBaseOne finds a common ancestor of a and b via bidirectional BFS
// over commit parents, side-bitmask visited tracking. parents looks up
// a commit's parent list; ok is false for an unknown commit.
func mergeBaseOne(a, b objectid.ID, parents func(objectid.ID) ([]objectid.ID, bool)) (objectid.ID, bool) {
	const sideA, sideB = 1, 2
	if a == b {
		return a, true
	}
	visited := make(map[objectid.ID]int)
	visited[a] |= sideA
	visited[b] |= sideB

	h := &commitHeap{}
	heap.Init(h)
	heap.Push(h, bfsItem{a})
	heap.Push(h, bfsItem{b})

	for h.Len() > 0 {
		cur := heap.Pop(h).(bfsItem)
		side := visited[cur.id]
		if side == sideA|sideB {
			return cur.id, true
		}
		parentIDs, ok := parents(cur.id)
		if !ok {
			continue
		}
		for _, p := range parentIDs {
			prev := visited[p]
			next := prev | side
			if next == sideA|sideB {
				return p, true
			}
			if next != prev {
				visited[p] = next
				heap.Push(h, bfsItem{p})
			}
		}
	}
	return objectid.Zero, false
}

// mergeBasesMany reduces merge-bases-many(commit, commits) to the
// pairwise merge base of commit against each element of commits,
// deduplicated. Shared by MemoryStore and FileObjectStore.
func mergeBasesMany(commit objectid.ID, commits []objectid.ID, parents func(objectid.ID) ([]objectid.ID, bool)) []objectid.ID {
	seen := make(map[objectid.ID]bool)
	var out []objectid.ID
	for _, c := range commits {
		base, ok := mergeBaseOne(commit, c, parents)
		if !ok {
			continue
		}
		if !seen[base] {
			seen[base] = true
			out = append(out, base)
		}
	}
	return out
}

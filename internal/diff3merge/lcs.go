// Package diff3merge is the default LineMerger implementation: an
// LCS-based line diff feeding a three-way diff3 merge with zealous
// conflict-hunk trimming.
//
// Adapted from the candidate-chain LCS algorithm (Hunt-Szymanski) and
// the ported diff3 merge in the reference VCS's diferenco package.
package diff3merge

// candidate is one node of the LCS candidate chain.
type candidate struct {
	i, j  int
	chain *candidate
}

// lcs computes the longest common subsequence between a and b using
// the classic candidate/equivalence-class algorithm: O((r+n) log n)
// where r is the number of matching pairs.
func lcs[E comparable](a, b []E) *candidate {
	equiv := make(map[E][]int, len(b))
	for j, item := range b {
		equiv[item] = append(equiv[item], j)
	}

	null := &candidate{i: -1, j: -1}
	candidates := []*candidate{null}

	for i, item := range a {
		indices := equiv[item]
		r := 0
		c := candidates[0]
		for _, j := range indices {
			s := r
			for ; s < len(candidates); s++ {
				if candidates[s].j < j && (s == len(candidates)-1 || candidates[s+1].j > j) {
					break
				}
			}
			if s < len(candidates) {
				nc := &candidate{i: i, j: j, chain: candidates[s]}
				if r == len(candidates) {
					candidates = append(candidates, c)
				} else {
					candidates[r] = c
				}
				r = s + 1
				c = nc
				if r == len(candidates) {
					break
				}
			}
		}
		if r < len(candidates) {
			candidates[r] = c
		} else {
			candidates = append(candidates, c)
		}
	}
	return candidates[len(candidates)-1]
}

// matchPairs walks the candidate chain and returns the matched
// (i, j) index pairs in increasing order.
func matchPairs[E comparable](a, b []E) [][2]int {
	c := lcs(a, b)
	var pairs [][2]int
	for c != nil && c.i >= 0 {
		pairs = append(pairs, [2]int{c.i, c.j})
		c = c.chain
	}
	for i, j := 0, len(pairs)-1; i < j; i, j = i+1, j-1 {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	}
	return pairs
}

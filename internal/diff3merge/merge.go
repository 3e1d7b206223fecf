package diff3merge

import (
	"sort"
	"strings"
)

const (
	sep1 = "<<<<<<<"
	sep2 = "======="
	sep3 = ">>>>>>>"
	sepO = "|||||||"
)

type hunk [5]int

type hunkList []*hunk

func (h hunkList) Len() int           { return len(h) }
func (h hunkList) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h hunkList) Less(i, j int) bool { return h[i][0] < h[j][0] }

// mergeIndices is the direct adaptation of the reference VCS's
// diff3MergeIndices: it interleaves the o-vs-a and o-vs-b hunks and
// produces either straight copy records ([side, off, len]) or conflict
// records ([-1, aLhs, aLen, oLhs, oLen, bLhs, bLen]).
func mergeIndices[E comparable](o, a, b []E) [][]int {
	m1 := diffLines(o, a)
	m2 := diffLines(o, b)

	var hunks []*hunk
	for _, c := range m1 {
		hunks = append(hunks, &hunk{c.p1, 0, c.del, c.p2, c.ins})
	}
	for _, c := range m2 {
		hunks = append(hunks, &hunk{c.p1, 2, c.del, c.p2, c.ins})
	}
	sort.Sort(hunkList(hunks))

	var result [][]int
	commonOffset := 0
	copyCommon := func(target int) {
		if target > commonOffset {
			result = append(result, []int{1, commonOffset, target - commonOffset})
			commonOffset = target
		}
	}

	for hi := 0; hi < len(hunks); hi++ {
		first := hi
		h := hunks[hi]
		regionLhs := h[0]
		regionRhs := regionLhs + h[2]
		for hi < len(hunks)-1 {
			next := hunks[hi+1]
			if next[0] > regionRhs {
				break
			}
			if rhs := next[0] + next[2]; rhs > regionRhs {
				regionRhs = rhs
			}
			hi++
		}

		copyCommon(regionLhs)
		if first == hi {
			if h[4] > 0 {
				result = append(result, []int{h[1], h[3], h[4]})
			}
		} else {
			regions := [][]int{{len(a), -1, len(o), -1}, nil, {len(b), -1, len(o), -1}}
			for i := first; i <= hi; i++ {
				hh := hunks[i]
				side := hh[1]
				r := regions[side]
				oLhs, oRhs := hh[0], hh[0]+hh[2]
				abLhs, abRhs := hh[3], hh[3]+hh[4]
				if abLhs < r[0] {
					r[0] = abLhs
				}
				if abRhs > r[1] {
					r[1] = abRhs
				}
				if oLhs < r[2] {
					r[2] = oLhs
				}
				if oRhs > r[3] {
					r[3] = oRhs
				}
			}
			aLhs := regions[0][0] + (regionLhs - regions[0][2])
			aRhs := regions[0][1] + (regionRhs - regions[0][3])
			bLhs := regions[2][0] + (regionLhs - regions[2][2])
			bRhs := regions[2][1] + (regionRhs - regions[2][3])
			result = append(result, []int{-1, aLhs, aRhs - aLhs, regionLhs, regionRhs - regionLhs, bLhs, bRhs - bLhs})
		}
		commonOffset = regionRhs
	}
	copyCommon(len(o))
	return result
}

// block is one merged region: either clean lines or a conflict.
type block struct {
	ok       []string
	conflict *conflict
}

type conflict struct {
	a, o, b []string
}

func mergeBlocks(o, a, b []string) []*block {
	indices := mergeIndices(o, a, b)
	files := [][]string{a, o, b}
	var result []*block
	var okLines []string
	flush := func() {
		if len(okLines) != 0 {
			result = append(result, &block{ok: okLines})
			okLines = nil
		}
	}
	isTrueConflict := func(rec []int) bool {
		if rec[2] != rec[6] {
			return true
		}
		aoff, boff := rec[1], rec[5]
		for j := 0; j < rec[2]; j++ {
			if a[j+aoff] != b[j+boff] {
				return true
			}
		}
		return false
	}
	for _, x := range indices {
		side := x[0]
		if side == -1 {
			if !isTrueConflict(x) {
				okLines = append(okLines, files[0][x[1]:x[1]+x[2]]...)
				continue
			}
			flush()
			result = append(result, &block{conflict: &conflict{
				a: a[x[1] : x[1]+x[2]],
				o: o[x[3] : x[3]+x[4]],
				b: b[x[5] : x[5]+x[6]],
			}})
			continue
		}
		okLines = append(okLines, files[side][x[1]:x[1]+x[2]]...)
	}
	flush()
	return result
}

func commonPrefixLen(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func commonSuffixLen(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}

func writeConflict(out *strings.Builder, c *conflict, labelOurs, labelTheirs string, style Style) {
	if style != StyleZealous {
		out.WriteString(sep1 + labelOurs + "\n")
		writeLines(out, c.a)
		if style == StyleDiff3 {
			out.WriteString(sepO + "\n")
			writeLines(out, c.o)
		}
		out.WriteString(sep2 + "\n")
		writeLines(out, c.b)
		out.WriteString(sep3 + labelTheirs + "\n")
		return
	}

	a, b := c.a, c.b
	prefix := commonPrefixLen(a, b)
	writeLines(out, a[:prefix])
	a = a[prefix:]
	b = b[prefix:]
	suffix := commonSuffixLen(a, b)

	out.WriteString(sep1 + labelOurs + "\n")
	writeLines(out, a[:len(a)-suffix])
	out.WriteString(sepO + "\n")
	writeLines(out, c.o)
	out.WriteString(sep2 + "\n")
	writeLines(out, b[:len(b)-suffix])
	out.WriteString(sep3 + labelTheirs + "\n")
	if suffix != 0 {
		writeLines(out, b[len(b)-suffix:])
	}
}

func writeLines(out *strings.Builder, lines []string) {
	for _, l := range lines {
		out.WriteString(l)
		out.WriteByte('\n')
	}
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// Merge runs the three-way diff3 merge over raw text, labeling conflict
// hunks with labelOurs/labelTheirs per style: StyleZealous factors the
// common prefix/suffix out of the conflicting region and always shows
// the base text; StyleDiff3 shows the base text without trimming;
// StyleMerge omits the base text entirely. Returns the merged text and
// the number of conflict hunks.
func Merge(orig, ours, theirs, labelOurs, labelTheirs string, style Style) (string, int) {
	o := splitLines(orig)
	a := splitLines(ours)
	b := splitLines(theirs)
	blocks := mergeBlocks(o, a, b)
	var out strings.Builder
	out.Grow(len(orig) + len(ours) + len(theirs))
	conflicts := 0
	for _, blk := range blocks {
		if blk.conflict != nil {
			conflicts++
			writeConflict(&out, blk.conflict, labelOurs, labelTheirs, style)
			continue
		}
		writeLines(&out, blk.ok)
	}
	return out.String(), conflicts
}

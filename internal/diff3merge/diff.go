package diff3merge

// change is one edit hunk: replace a[p1:p1+del] with b[p2:p2+ins].
type change struct {
	p1, del int
	p2, ins int
}

// diffLines turns the matched-pair chain between o and a into a
// minimal set of replace hunks over the unmatched runs.
func diffLines[E comparable](o, a []E) []change {
	pairs := matchPairs(o, a)
	var changes []change
	oPos, aPos := 0, 0
	flush := func(oEnd, aEnd int) {
		del := oEnd - oPos
		ins := aEnd - aPos
		if del > 0 || ins > 0 {
			changes = append(changes, change{p1: oPos, del: del, p2: aPos, ins: ins})
		}
		oPos, aPos = oEnd, aEnd
	}
	for _, p := range pairs {
		oi, aj := p[0], p[1]
		if oi > oPos || aj > aPos {
			flush(oi, aj)
		}
		oPos, aPos = oi+1, aj+1
	}
	flush(len(o), len(a))
	return changes
}

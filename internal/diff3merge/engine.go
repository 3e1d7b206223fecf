package diff3merge

// Style selects how a content-conflict hunk is rendered, mirroring the
// reference VCS's merge.conflictStyle values.
type Style string

const (
	StyleMerge   Style = "merge"  // ours/theirs markers only
	StyleDiff3   Style = "diff3"  // adds the common-ancestor hunk
	StyleZealous Style = "zdiff3" // diff3 plus common-edge collapsing
)

// Engine is the default LineMerger: an in-process diff3 merge, used
// unless a merge-driver attribute names an external program (see
// pkg/extmerge).
type Engine struct{}

// MergeText performs the three-way merge using the zealous style and
// returns the merged bytes plus a status: status == 0 is clean,
// status > 0 is the conflict-hunk count, matching the
// external-merge-program exit-status convention so callers can treat
// both uniformly.
func (e Engine) MergeText(orig, ours, theirs []byte, labelOurs, labelTheirs string) ([]byte, int, error) {
	return e.MergeTextStyled(orig, ours, theirs, labelOurs, labelTheirs, string(StyleZealous))
}

// MergeTextStyled is the pkg/pathmerge.StyledLineMerger extension:
// style selects the conflict-hunk rendering per the merge-driver
// attribute file's conflict_style setting (internal/mergeconf). An
// unrecognized or empty style falls back to StyleZealous.
func (Engine) MergeTextStyled(orig, ours, theirs []byte, labelOurs, labelTheirs, style string) ([]byte, int, error) {
	s := Style(style)
	switch s {
	case StyleMerge, StyleDiff3, StyleZealous:
	default:
		s = StyleZealous
	}
	merged, conflicts := Merge(string(orig), string(ours), string(theirs), labelOurs, labelTheirs, s)
	return []byte(merged), conflicts, nil
}

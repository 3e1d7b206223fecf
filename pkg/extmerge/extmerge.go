// Package extmerge is the ExternalProgramCallback: an IndexWalker
// callback adapter that shells out to a user-supplied merge program
// instead of running the in-process PathMerger. The child is
// responsible for its own index updates; this adapter only forwards
// the wire protocol and reports the exit status.
package extmerge

import (
	"context"
	"os/exec"

	"github.com/zeta-vcs/zeta-merge/modules/mergeindex"
)

// Callback invokes Program once per dispatched path, formatting
// argv per the external merge-program wire protocol:
//
//	<program> <orig_hex> <ours_hex> <theirs_hex> <path> <orig_mode_oct> <ours_mode_oct> <theirs_mode_oct>
//
// Missing blobs become empty strings. Exit status 0 is clean;
// non-zero is a hand-resolvable conflict (returned as conflict=true,
// err=nil); a failure to spawn the child is a setup error.
type Callback struct {
	Program string
}

func New(program string) *Callback {
	return &Callback{Program: program}
}

// Invoke conforms to indexwalker.Callback.
func (c *Callback) Invoke(ctx context.Context, path string, orig, ours, theirs *mergeindex.CacheEntry) (bool, error) {
	hex := func(e *mergeindex.CacheEntry) string {
		if e == nil {
			return ""
		}
		return e.OID.String()
	}
	mode := func(e *mergeindex.CacheEntry) string {
		if e == nil {
			return ""
		}
		return e.Mode.String()
	}
	args := []string{
		hex(orig), hex(ours), hex(theirs),
		path,
		mode(orig), mode(ours), mode(theirs),
	}
	cmd := exec.CommandContext(ctx, c.Program, args...)
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode() != 0, nil
		}
		return false, err
	}
	return false, nil
}

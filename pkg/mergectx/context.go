// Package mergectx defines MergeContext: the per-invocation state a
// driver threads through a resolve/octopus run — repo collaborators,
// the in-memory index, the held lock, and the reporter. It is created
// at driver entry; the lock is released on every exit path and index
// mutations are flushed exactly once, on success.
package mergectx

import (
	"github.com/zeta-vcs/zeta-merge/modules/indexlock"
	"github.com/zeta-vcs/zeta-merge/modules/mergeindex"
	"github.com/zeta-vcs/zeta-merge/pkg/collab"
	"github.com/zeta-vcs/zeta-merge/pkg/report"
)

// Context is the MergeContext.
type Context struct {
	Store       collab.ObjectStore
	UnpackTrees collab.UnpackTrees
	MergeBases  collab.MergeBases
	IndexIO     collab.IndexIO

	Index    *mergeindex.Index
	Lock     *indexlock.Lock
	IndexPath string
	Reporter *report.Reporter
}

// AcquireLock acquires the scoped index lock, dying (per §4.6) on
// contention rather than returning a retryable error.
func (c *Context) AcquireLock() error {
	lock, err := indexlock.Acquire(c.IndexPath)
	if err != nil {
		return err
	}
	c.Lock = lock
	return nil
}

// ReleaseLock rolls back the held lock if one is still held — the
// guaranteed-release-on-any-exit-path half of §4.6. Committing
// (writing the index) calls Lock.Commit directly and then this is a
// no-op.
func (c *Context) ReleaseLock() {
	if c.Lock != nil {
		_ = c.Lock.Rollback()
		c.Lock = nil
	}
}

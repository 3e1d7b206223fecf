package collab

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zeta-vcs/zeta-merge/modules/filemode"
	"github.com/zeta-vcs/zeta-merge/modules/mergeindex"
	"github.com/zeta-vcs/zeta-merge/modules/objectid"
)

// FileIndexIO is the disk-backed IndexIO collaborator: it persists the
// staged index as a flat text file at Path, distinct from the
// indexlock.Lock's own lockfile (which exists purely for mutual
// exclusion, per modules/indexlock). This is what makes
// merge-resolve --continue/--abort usable from a later process
// invocation, after a conflicted run has already exited.
type FileIndexIO struct {
	Store *FileObjectStore
	Path  string
}

func NewFileIndexIO(store *FileObjectStore, path string) *FileIndexIO {
	return &FileIndexIO{Store: store, Path: path}
}

// Refresh loads the persisted index from Path, if one exists. A
// missing file is not an error: the first invocation of a merge has
// nothing to load yet.
func (f *FileIndexIO) Refresh(_ context.Context, index *mergeindex.Index) error {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("collab: read index %s: %w", f.Path, err)
	}
	var entries []*mergeindex.CacheEntry
	scanner := bufio.NewScanner(strings.NewReader(string(raw)))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 4)
		if len(fields) != 4 {
			return fmt.Errorf("collab: malformed index line %q", line)
		}
		stage, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("collab: bad stage in %q: %w", line, err)
		}
		mode, err := strconv.ParseUint(fields[1], 8, 32)
		if err != nil {
			return fmt.Errorf("collab: bad mode in %q: %w", line, err)
		}
		oid, err := objectid.NewEx(fields[2])
		if err != nil {
			return fmt.Errorf("collab: bad object id in %q: %w", line, err)
		}
		entries = append(entries, &mergeindex.CacheEntry{
			Path:  fields[3],
			OID:   oid,
			Mode:  filemode.FileMode(mode),
			Stage: mergeindex.Stage(stage),
		})
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	index.Entries = entries
	index.Sort()
	return nil
}

// WriteLocked serializes index to Path as "<stage> <mode> <oid> <path>"
// lines, one per entry.
func (f *FileIndexIO) WriteLocked(_ context.Context, index *mergeindex.Index) error {
	index.Sort()
	var sb strings.Builder
	for _, e := range index.Entries {
		fmt.Fprintf(&sb, "%d %06o %s %s\n", e.Stage, uint32(e.Mode), e.OID, e.Path)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("collab: mkdir for index %s: %w", f.Path, err)
	}
	if err := os.WriteFile(f.Path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("collab: write index %s: %w", f.Path, err)
	}
	return nil
}

// WriteAsTree mirrors MemoryIndexIO.WriteAsTree against FileObjectStore.
func (f *FileIndexIO) WriteAsTree(_ context.Context, index *mergeindex.Index, _ bool) (objectid.ID, bool, error) {
	var entries []TreeEntry
	for _, e := range index.Entries {
		if e.Stage != mergeindex.Merged {
			return objectid.Zero, false, nil
		}
		entries = append(entries, TreeEntry{Path: e.Path, OID: e.OID, Mode: uint32(e.Mode)})
	}
	if len(entries) == 0 {
		return f.Store.EmptyTreeID(), true, nil
	}
	id, err := f.Store.WriteTree(entries)
	if err != nil {
		return objectid.Zero, false, err
	}
	return id, true, nil
}

package collab

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zeta-vcs/zeta-merge/modules/objectid"
)

// FileObjectStore is a real disk-backed ObjectStore/MergeBases: objects
// live under Root in a content-addressed, git-loose-object-style
// fan-out (Root/<id[0:2]>/<id[2:]>), each file a type-tagged flat
// record. Unlike MemoryStore, this is what cmd/merge-resolve and
// cmd/merge-octopus use for a real invocation against a checked-out
// object database instead of a Go test's pre-seeded fixtures.
type FileObjectStore struct {
	Root string
}

func NewFileObjectStore(root string) *FileObjectStore {
	return &FileObjectStore{Root: root}
}

func (s *FileObjectStore) objectPath(id objectid.ID) string {
	hexID := id.String()
	return filepath.Join(s.Root, hexID[:2], hexID[2:])
}

// writeObject writes kind+body under id's fan-out path, skipping the
// write entirely if the file already exists — content-addressed
// storage is idempotent by construction.
func (s *FileObjectStore) writeObject(id objectid.ID, kind string, body []byte) error {
	path := s.objectPath(id)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("collab: mkdir for %s: %w", id, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("collab: create object %s: %w", id, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, kind); err != nil {
		return err
	}
	_, err = f.Write(body)
	return err
}

func (s *FileObjectStore) readObject(id objectid.ID) (kind string, body []byte, err error) {
	raw, err := os.ReadFile(s.objectPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("collab: object %s not found", id)
		}
		return "", nil, fmt.Errorf("collab: read object %s: %w", id, err)
	}
	nl := strings.IndexByte(string(raw), '\n')
	if nl < 0 {
		return "", nil, fmt.Errorf("collab: object %s is malformed", id)
	}
	return string(raw[:nl]), raw[nl+1:], nil
}

// PutBlob writes content to disk under its own content address,
// mirroring MemoryStore.PutBlob for CLI seeding and tests.
func (s *FileObjectStore) PutBlob(content []byte) (objectid.ID, error) {
	id := objectid.Of(content)
	return id, s.writeObject(id, "blob", content)
}

func (s *FileObjectStore) ReadBlob(_ context.Context, id objectid.ID) ([]byte, error) {
	if id == objectid.EmptyBlob || id.IsZero() {
		return nil, nil
	}
	kind, body, err := s.readObject(id)
	if err != nil {
		return nil, err
	}
	if kind != "blob" {
		return nil, fmt.Errorf("collab: %s is a %s, not a blob", id, kind)
	}
	return body, nil
}

// WriteTree hashes and writes entries (already path-sorted by the
// caller's convention) as a tree object, skipping the write if the
// content address already exists on disk.
func (s *FileObjectStore) WriteTree(entries []TreeEntry) (objectid.ID, error) {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%06o %s %s\n", e.Mode, e.OID, e.Path)
	}
	body := []byte(sb.String())
	id := objectid.Of(body)
	if err := s.writeObject(id, "tree", body); err != nil {
		return objectid.Zero, err
	}
	return id, nil
}

func (s *FileObjectStore) ParseTree(_ context.Context, id objectid.ID) (*Tree, error) {
	if id == s.EmptyTreeID() {
		return &Tree{ID: id}, nil
	}
	kind, body, err := s.readObject(id)
	if err != nil {
		return nil, err
	}
	if kind != "tree" {
		return nil, fmt.Errorf("collab: %s is a %s, not a tree", id, kind)
	}
	var entries []TreeEntry
	scanner := bufio.NewScanner(strings.NewReader(string(body)))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 3)
		if len(fields) != 3 {
			return nil, fmt.Errorf("collab: malformed tree entry %q in %s", line, id)
		}
		mode, err := strconv.ParseUint(fields[0], 8, 32)
		if err != nil {
			return nil, fmt.Errorf("collab: bad mode in tree %s: %w", id, err)
		}
		oid, err := objectid.NewEx(fields[1])
		if err != nil {
			return nil, fmt.Errorf("collab: bad object id in tree %s: %w", id, err)
		}
		entries = append(entries, TreeEntry{Path: fields[2], OID: oid, Mode: uint32(mode)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &Tree{ID: id, Entries: entries}, nil
}

// PutCommit writes a commit object with one "tree <id>" line and one
// "parent <id>" line per parent.
func (s *FileObjectStore) PutCommit(c *CommitRef) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "tree %s\n", c.TreeID)
	for _, p := range c.Parents {
		fmt.Fprintf(&sb, "parent %s\n", p)
	}
	return s.writeObject(c.ID, "commit", []byte(sb.String()))
}

func (s *FileObjectStore) ParseCommit(_ context.Context, id objectid.ID) (*CommitRef, error) {
	kind, body, err := s.readObject(id)
	if err != nil {
		return nil, err
	}
	if kind != "commit" {
		return nil, fmt.Errorf("collab: %s is a %s, not a commit", id, kind)
	}
	ref := &CommitRef{ID: id}
	scanner := bufio.NewScanner(strings.NewReader(string(body)))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "tree "):
			treeID, err := objectid.NewEx(strings.TrimPrefix(line, "tree "))
			if err != nil {
				return nil, fmt.Errorf("collab: bad tree id in commit %s: %w", id, err)
			}
			ref.TreeID = treeID
		case strings.HasPrefix(line, "parent "):
			parentID, err := objectid.NewEx(strings.TrimPrefix(line, "parent "))
			if err != nil {
				return nil, fmt.Errorf("collab: bad parent id in commit %s: %w", id, err)
			}
			ref.Parents = append(ref.Parents, parentID)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ref, nil
}

func (s *FileObjectStore) EmptyTreeID() objectid.ID { return objectid.EmptyTree }

// parents adapts ParseCommit to the shared bidirectional-BFS signature
// in mergebase.go; an unreadable/missing commit is simply "unknown"
// rather than a hard error, matching MemoryStore's parents.
func (s *FileObjectStore) parents(id objectid.ID) ([]objectid.ID, bool) {
	c, err := s.ParseCommit(context.Background(), id)
	if err != nil {
		return nil, false
	}
	return c.Parents, true
}

func (s *FileObjectStore) MergeBasesMany(_ context.Context, commit objectid.ID, commits []objectid.ID) ([]objectid.ID, error) {
	return mergeBasesMany(commit, commits, s.parents), nil
}

// Package pathmerge implements the per-path three-way merge decision
// table: given (orig, ours, theirs) blob/mode pairs for one path, it
// decides add/delete/modify/content-merge, drives the line-merge
// engine, and updates the index and working tree.
package pathmerge

import (
	"fmt"

	"github.com/zeta-vcs/zeta-merge/modules/filemode"
	"github.com/zeta-vcs/zeta-merge/modules/objectid"
)

// BlobRef is an optional (ObjectId, FileMode) pair; a nil *BlobRef
// means "the file does not exist in this version".
type BlobRef struct {
	OID  objectid.ID
	Mode filemode.FileMode
}

func (b *BlobRef) present() bool { return b != nil }

func sameBlob(a, b *BlobRef) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.OID == b.OID && a.Mode == b.Mode
}

func sameMode(a, b *BlobRef) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Mode == b.Mode
}

func sameContent(a, b *BlobRef) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.OID == b.OID
}

// Input is a PathMergeInput: the three-sided view of one repository
// path dispatched by the index walker.
type Input struct {
	Path   string
	Orig   *BlobRef
	Ours   *BlobRef
	Theirs *BlobRef
}

// Validate enforces the base invariants: a non-empty, safe relative
// path, and at least one side present.
func (in *Input) Validate() error {
	if in.Path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if err := validatePath(in.Path); err != nil {
		return err
	}
	if !in.Orig.present() && !in.Ours.present() && !in.Theirs.present() {
		return fmt.Errorf("%w: %s has no side present", ErrInvalidPath, in.Path)
	}
	return nil
}

// OutcomeKind tags a ConflictOutcome.
type OutcomeKind int

const (
	Clean OutcomeKind = iota
	ContentConflict
	PermissionConflict
	TypeConflict
	DeletedModified
	AddedDifferently
	UntrackedOverwrite
	UnhandledCase
	// ConflictBinary marks a path whose content merge was refused
	// because either side is a binary/oversized fragment placeholder
	// (filemode.FileMode.IsFragments) rather than text — the line-merge
	// engine is never invoked for these.
	ConflictBinary
)

// TypeConflictKind distinguishes the two TypeConflict variants.
type TypeConflictKind int

const (
	TypeConflictSymlink TypeConflictKind = iota
	TypeConflictSubmodule
)

// Outcome is the tagged result of merging one path.
type Outcome struct {
	Kind             OutcomeKind
	Path             string
	Orig, Ours, Theirs *BlobRef
	TypeKind         TypeConflictKind
	Which            string // for DeletedModified: "ours" | "theirs"
	Message          string
}

func (o *Outcome) IsConflict() bool {
	return o.Kind != Clean
}

// outcomeKindNames mirrors the OutcomeKind enum for JSON rendering.
var outcomeKindNames = [...]string{
	Clean:              "clean",
	ContentConflict:    "content_conflict",
	PermissionConflict: "permission_conflict",
	TypeConflict:       "type_conflict",
	DeletedModified:    "deleted_modified",
	AddedDifferently:   "added_differently",
	UntrackedOverwrite: "untracked_overwrite",
	UnhandledCase:      "unhandled_case",
	ConflictBinary:     "conflict_binary",
}

func (k OutcomeKind) String() string {
	if int(k) >= 0 && int(k) < len(outcomeKindNames) && outcomeKindNames[k] != "" {
		return outcomeKindNames[k]
	}
	return "unknown"
}

// Record renders a conflicting Outcome as a plain map suitable for
// pkg/report.ConflictReport.Conflicts (kept untyped there to avoid a
// report -> pathmerge import cycle).
func (o *Outcome) Record() map[string]any {
	rec := map[string]any{"path": o.Path, "kind": o.Kind.String()}
	if o.Which != "" {
		rec["which"] = o.Which
	}
	if o.Kind == TypeConflict {
		if o.TypeKind == TypeConflictSubmodule {
			rec["type"] = "submodule"
		} else {
			rec["type"] = "symlink"
		}
	}
	return rec
}

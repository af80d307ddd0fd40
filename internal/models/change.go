// Package models defines the typed records produced by the grist engine:
// working-tree change records, diff lines, hunks, commits, stashes, and the
// aggregate repository snapshot. It also owns input validation for values
// that are forwarded to the git command layer.
package models

import (
	"time"

	"github.com/dustin/go-humanize"
)

// ChangeCategory classifies a working-tree change record.
type ChangeCategory string

const (
	CategoryConflict  ChangeCategory = "conflict"
	CategoryStaged    ChangeCategory = "staged"
	CategoryUnstaged  ChangeCategory = "unstaged"
	CategoryUntracked ChangeCategory = "untracked"
)

// ChangeRecord describes one file's state in the working tree or index.
// StatusCode is the two-letter porcelain pair the record was derived from.
type ChangeRecord struct {
	Path       string
	OldPath    string // set for renames
	StatusCode string
	Category   ChangeCategory
}

// DiffLineKind classifies a single line of a parsed unified diff.
type DiffLineKind string

const (
	DiffLineHeader  DiffLineKind = "header"  // @@ hunk header
	DiffLineMeta    DiffLineKind = "meta"    // file headers, index lines
	DiffLineContext DiffLineKind = "context"
	DiffLineAdd     DiffLineKind = "add"
	DiffLineRemove  DiffLineKind = "remove"
	DiffLineWarning DiffLineKind = "warning" // \ No newline at end of file
)

// DiffLine is one line of a unified diff with running line numbers.
// OldLineNumber and NewLineNumber are zero when the line has no position on
// that side. HunkIndex is -1 for file-level meta lines.
type DiffLine struct {
	Kind          DiffLineKind
	Text          string
	OldLineNumber int
	NewLineNumber int
	HunkIndex     int
}

// Hunk is one contiguous change region of a unified diff. PatchText is a
// minimal, independently applicable unified-diff document: the file headers
// plus exactly this hunk's body.
type Hunk struct {
	Header    string
	OldStart  int
	OldCount  int
	NewStart  int
	NewCount  int
	PatchText string
}

// CommitRecord is a single commit as listed by the engine.
type CommitRecord struct {
	Hash         string
	ShortHash    string
	Message      string
	Author       string
	RelativeTime string
	GraphLane    string
}

// StashRecord is one stash entry. Ref always matches the stash@{N} grammar.
type StashRecord struct {
	Ref          string
	Message      string
	RelativeTime string
}

// SyncState describes a branch's relationship to its upstream.
type SyncState struct {
	Branch         string
	HasUpstream    bool
	TrackingBranch string
	Ahead          int
	Behind         int
}

// ActivityDay is one day's commit count in an activity series.
type ActivityDay struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// RepoSnapshot is the immutable aggregate result of a status query. A new
// load produces a new snapshot; callers never mutate one in place.
type RepoSnapshot struct {
	Root      string
	Branch    string
	Conflicts []ChangeRecord
	Staged    []ChangeRecord
	Unstaged  []ChangeRecord
	Untracked []ChangeRecord
	Sync      SyncState
	Outgoing  []CommitRecord
	Incoming  []CommitRecord
	Activity  []ActivityDay
	LoadedAt  time.Time
}

// TotalChanges returns the number of change records across all categories.
func (s *RepoSnapshot) TotalChanges() int {
	return len(s.Conflicts) + len(s.Staged) + len(s.Unstaged) + len(s.Untracked)
}

// Clean reports whether the working tree has no changes of any kind.
func (s *RepoSnapshot) Clean() bool {
	return s.TotalChanges() == 0
}

// RelativeTime renders a commit or stash timestamp the way the UI shows it.
func RelativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mkarlen/grist/internal/cache"
	"github.com/mkarlen/grist/internal/models"
)

// StatusLine is a raw porcelain status line: the index/worktree status pair
// and the path, with OldPath set when the line describes a rename.
type StatusLine struct {
	X       byte
	Y       byte
	Path    string
	OldPath string
}

// minStatusLineLen is the fixed-width prefix "XY " plus at least one path
// character.
const minStatusLineLen = 4

// ParseStatusLine converts one two-letter porcelain status entry into its
// parts. Entries shorter than the fixed-width prefix are dropped as
// malformed and yield nil. The path is taken verbatim; rename origins are
// separate fields in the NUL-delimited format and are attached by
// ParseStatusEntries.
func ParseStatusLine(line string) *StatusLine {
	if len(line) < minStatusLineLen || line[2] != ' ' {
		return nil
	}
	sl := &StatusLine{X: line[0], Y: line[1], Path: line[3:]}
	if sl.Path == "" {
		return nil
	}
	return sl
}

// ParseStatusEntries parses NUL-delimited porcelain output (status -z).
// Unlike the line format, -z never C-quotes paths, so filenames with
// non-ASCII or special bytes come through verbatim. A rename or copy entry
// is followed by its origin path as a separate NUL-terminated field.
func ParseStatusEntries(out string) []StatusLine {
	var entries []StatusLine
	tokens := strings.Split(out, "\x00")
	for i := 0; i < len(tokens); i++ {
		sl := ParseStatusLine(tokens[i])
		if sl == nil {
			continue
		}
		if isRenameStatus(sl.X, sl.Y) && i+1 < len(tokens) && tokens[i+1] != "" {
			i++
			sl.OldPath = tokens[i]
		}
		entries = append(entries, *sl)
	}
	return entries
}

func isRenameStatus(x, y byte) bool {
	return x == 'R' || x == 'C' || y == 'R' || y == 'C'
}

// IsUnmergedStatus recognizes exactly the six conflict pair codes. Records
// carrying one of these are routed to the conflict category and never appear
// as staged or unstaged.
func IsUnmergedStatus(x, y byte) bool {
	switch string([]byte{x, y}) {
	case "DD", "AU", "UD", "UA", "DU", "AA", "UU":
		return true
	}
	return false
}

const (
	stagedCodes   = "MTADRC"
	unstagedCodes = "MTDRC"
)

// records expands a status line into categorized change records. A file
// modified both in the index and the worktree yields one staged and one
// unstaged record.
func (sl *StatusLine) records() []models.ChangeRecord {
	code := string([]byte{sl.X, sl.Y})
	base := models.ChangeRecord{Path: sl.Path, OldPath: sl.OldPath, StatusCode: code}

	if IsUnmergedStatus(sl.X, sl.Y) {
		base.Category = models.CategoryConflict
		return []models.ChangeRecord{base}
	}
	if sl.X == '?' && sl.Y == '?' {
		base.Category = models.CategoryUntracked
		return []models.ChangeRecord{base}
	}

	var out []models.ChangeRecord
	if strings.IndexByte(stagedCodes, sl.X) >= 0 {
		r := base
		r.Category = models.CategoryStaged
		out = append(out, r)
	}
	if strings.IndexByte(unstagedCodes, sl.Y) >= 0 {
		r := base
		r.Category = models.CategoryUnstaged
		out = append(out, r)
	}
	if len(out) == 0 {
		// Pair does not match any known category: treat as untracked.
		base.Category = models.CategoryUntracked
		out = append(out, base)
	}
	return out
}

// LoadStatus returns the repository snapshot, serving a fresh cached copy or
// joining an in-flight load when one exists.
func (e *Engine) LoadStatus(ctx context.Context, root string) (*models.RepoSnapshot, error) {
	return cache.Cached(e.cache, statusKey(root), e.cfg.StatusTTL(), func() (*models.RepoSnapshot, error) {
		return e.loadStatusUncached(ctx, root)
	})
}

func (e *Engine) loadStatusUncached(ctx context.Context, root string) (*models.RepoSnapshot, error) {
	res, err := e.git(ctx, root, "status", "--porcelain", "-z")
	if err != nil {
		return nil, fmt.Errorf("failed to load status: %w", err)
	}

	snapshot := &models.RepoSnapshot{
		Root:     root,
		LoadedAt: time.Now(),
	}

	for _, sl := range ParseStatusEntries(res.Stdout) {
		for _, rec := range sl.records() {
			switch rec.Category {
			case models.CategoryConflict:
				snapshot.Conflicts = append(snapshot.Conflicts, rec)
			case models.CategoryStaged:
				snapshot.Staged = append(snapshot.Staged, rec)
			case models.CategoryUnstaged:
				snapshot.Unstaged = append(snapshot.Unstaged, rec)
			case models.CategoryUntracked:
				snapshot.Untracked = append(snapshot.Untracked, rec)
			}
		}
	}

	snapshot.Branch = e.currentBranch(ctx, root)

	sync, err := e.AheadBehind(ctx, root)
	if err != nil {
		return nil, err
	}
	snapshot.Sync = sync

	commits, err := e.LoadSyncCommits(ctx, root)
	if err != nil {
		return nil, err
	}
	snapshot.Outgoing = commits.Outgoing
	snapshot.Incoming = commits.Incoming

	activity, err := e.Activity(ctx, root, e.cfg.ActivityDays)
	if err == nil {
		snapshot.Activity = activity.Series
	}

	return snapshot, nil
}

// currentBranch returns the current branch name, or empty when HEAD is
// detached. An unborn branch still reports its name.
func (e *Engine) currentBranch(ctx context.Context, root string) string {
	res, err := e.git(ctx, root, "symbolic-ref", "--short", "-q", "HEAD")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(res.Stdout)
}

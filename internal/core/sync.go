package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mkarlen/grist/internal/cache"
	"github.com/mkarlen/grist/internal/models"
)

// SyncCommits lists the commits on each side of the upstream boundary.
// Absence of an upstream is a normal state: both lists are empty and
// HasUpstream is false.
type SyncCommits struct {
	Outgoing       []models.CommitRecord
	Incoming       []models.CommitRecord
	HasUpstream    bool
	TrackingBranch string
}

// logFieldSep is a control character used to delimit log fields so commit
// messages containing ordinary delimiters cannot corrupt parsing.
const logFieldSep = "\x1f"

const logFormat = "%H" + logFieldSep + "%h" + logFieldSep + "%s" + logFieldSep + "%an" + logFieldSep + "%at"

// AheadBehind returns the current branch's ahead/behind counts against its
// upstream. No branch or no upstream yields a zeroed result, not an error.
func (e *Engine) AheadBehind(ctx context.Context, root string) (models.SyncState, error) {
	return cache.Cached(e.cache, aheadBehindKey(root), e.cfg.AheadBehindTTL(), func() (models.SyncState, error) {
		return e.aheadBehindUncached(ctx, root)
	})
}

func (e *Engine) aheadBehindUncached(ctx context.Context, root string) (models.SyncState, error) {
	state := models.SyncState{}

	state.Branch = e.currentBranch(ctx, root)
	if state.Branch == "" {
		return state, nil
	}

	upstream, ok := e.upstreamRef(ctx, root)
	if !ok {
		return state, nil
	}
	state.HasUpstream = true
	state.TrackingBranch = upstream

	res, err := e.git(ctx, root, "rev-list", "--left-right", "--count", upstream+"...HEAD")
	if err != nil {
		return state, fmt.Errorf("failed to count ahead/behind: %w", err)
	}
	fields := strings.Fields(res.Stdout)
	if len(fields) == 2 {
		state.Behind, _ = strconv.Atoi(fields[0])
		state.Ahead, _ = strconv.Atoi(fields[1])
	}
	return state, nil
}

// upstreamRef resolves the tracking branch for HEAD. The second return is
// false when no upstream is configured.
func (e *Engine) upstreamRef(ctx context.Context, root string) (string, bool) {
	res, err := e.git(ctx, root, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{upstream}")
	if err != nil {
		return "", false
	}
	ref := strings.TrimSpace(res.Stdout)
	return ref, ref != ""
}

// LoadSyncCommits lists outgoing and incoming commits relative to the
// upstream, decorated with graph lanes. The lists are re-derived in full on
// every load; hasUpstream is authoritative and stale lists are never merged.
func (e *Engine) LoadSyncCommits(ctx context.Context, root string) (*SyncCommits, error) {
	result := &SyncCommits{}

	upstream, ok := e.upstreamRef(ctx, root)
	if !ok {
		return result, nil
	}
	result.HasUpstream = true
	result.TrackingBranch = upstream

	outgoing, err := e.logRange(ctx, root, upstream+"..HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to list outgoing commits: %w", err)
	}
	incoming, err := e.logRange(ctx, root, "HEAD.."+upstream)
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming commits: %w", err)
	}

	lanes, err := e.LoadCommitGraph(ctx, root)
	if err != nil {
		lanes = nil
	}
	result.Outgoing = decorateLanes(outgoing, lanes)
	result.Incoming = decorateLanes(incoming, lanes)
	return result, nil
}

// LoadRecentCommits lists the newest commits on HEAD with graph lanes.
func (e *Engine) LoadRecentCommits(ctx context.Context, root string, limit int) ([]models.CommitRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	commits, err := e.logRange(ctx, root, "-n", strconv.Itoa(limit), "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	lanes, err := e.LoadCommitGraph(ctx, root)
	if err != nil {
		lanes = nil
	}
	return decorateLanes(commits, lanes), nil
}

// logRange runs git log over the given range arguments and parses the
// field-delimited records.
func (e *Engine) logRange(ctx context.Context, root string, rangeArgs ...string) ([]models.CommitRecord, error) {
	args := append([]string{"log", "--format=" + logFormat}, rangeArgs...)
	res, err := e.git(ctx, root, args...)
	if err != nil {
		return nil, err
	}
	return parseLogRecords(res.Stdout), nil
}

func parseLogRecords(out string) []models.CommitRecord {
	var commits []models.CommitRecord
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, logFieldSep)
		if len(fields) < 5 {
			continue
		}
		rec := models.CommitRecord{
			Hash:      fields[0],
			ShortHash: fields[1],
			Message:   fields[2],
			Author:    fields[3],
		}
		if unix, err := strconv.ParseInt(fields[4], 10, 64); err == nil {
			rec.RelativeTime = models.RelativeTime(time.Unix(unix, 0))
		}
		commits = append(commits, rec)
	}
	return commits
}

// LoadCommitGraph maps commit hashes to their ASCII graph-lane prefixes from
// a topologically-ordered all-refs log.
func (e *Engine) LoadCommitGraph(ctx context.Context, root string) (map[string]string, error) {
	res, err := e.git(ctx, root, "log", "--all", "--topo-order", "--graph", "--format="+logFieldSep+"%H")
	if err != nil {
		return nil, fmt.Errorf("failed to load commit graph: %w", err)
	}

	lanes := make(map[string]string)
	for _, line := range strings.Split(res.Stdout, "\n") {
		prefix, hash, ok := strings.Cut(line, logFieldSep)
		if !ok {
			// Edge-only line between commits, no hash attached.
			continue
		}
		hash = strings.TrimSpace(hash)
		if hash == "" {
			continue
		}
		lanes[hash] = strings.TrimRight(prefix, " ")
	}
	return lanes, nil
}

// decorateLanes joins lane prefixes onto commit records by hash. A commit
// with no observed lane gets a bare marker.
func decorateLanes(commits []models.CommitRecord, lanes map[string]string) []models.CommitRecord {
	for i := range commits {
		if lane, ok := lanes[commits[i].Hash]; ok && lane != "" {
			commits[i].GraphLane = lane
		} else {
			commits[i].GraphLane = "*"
		}
	}
	return commits
}

package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mkarlen/grist/internal/models"
)

// StashChanges saves the working tree (including untracked files) to a new
// stash entry and restores a clean tree.
func (e *Engine) StashChanges(ctx context.Context, root, message string) error {
	args := []string{"stash", "push", "--include-untracked"}
	if message != "" {
		args = append(args, "-m", message)
	}

	res, err := e.git(ctx, root, args...)
	if err != nil {
		return fmt.Errorf("failed to stash changes: %w", err)
	}
	if strings.Contains(res.Stdout, "No local changes to save") {
		return errors.New("no local changes to save")
	}

	e.invalidateAfterMutation(root)
	return nil
}

// StashList returns all stash entries, newest first. Entries whose reflog
// selector does not match the stash@{N} grammar are dropped rather than
// forwarded.
func (e *Engine) StashList(ctx context.Context, root string) ([]models.StashRecord, error) {
	res, err := e.git(ctx, root, "stash", "list", "--format=%gd"+logFieldSep+"%s"+logFieldSep+"%at")
	if err != nil {
		return nil, fmt.Errorf("failed to list stashes: %w", err)
	}

	var records []models.StashRecord
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, logFieldSep)
		if len(fields) < 3 {
			continue
		}
		if _, err := models.ParseStashRef(fields[0]); err != nil {
			continue
		}
		rec := models.StashRecord{Ref: fields[0], Message: fields[1]}
		if unix, err := strconv.ParseInt(fields[2], 10, 64); err == nil {
			rec.RelativeTime = models.RelativeTime(time.Unix(unix, 0))
		}
		records = append(records, rec)
	}
	return records, nil
}

// StashApply applies a stash entry without removing it. When the apply
// produces conflicts the stash content is in place with markers; the
// returned ConflictStateError reports that state without undoing it.
func (e *Engine) StashApply(ctx context.Context, root, ref string) error {
	return e.stashRestore(ctx, root, ref, "apply")
}

// StashPop applies a stash entry and drops it on success. Git itself keeps
// the entry when the apply conflicts, so a conflicted pop degrades to an
// apply.
func (e *Engine) StashPop(ctx context.Context, root, ref string) error {
	return e.stashRestore(ctx, root, ref, "pop")
}

func (e *Engine) stashRestore(ctx context.Context, root, ref, subcommand string) error {
	if _, err := models.ParseStashRef(ref); err != nil {
		return err
	}

	res, err := e.git(ctx, root, "stash", subcommand, ref)
	e.invalidateAfterMutation(root)
	if err == nil {
		return nil
	}

	var execErr *models.ExecutionError
	if errors.As(err, &execErr) {
		// Git prints CONFLICT lines for a failed apply on stdout.
		combined := execErr.Stderr + res.Stdout
		if strings.Contains(combined, "CONFLICT") || strings.Contains(combined, "conflict") {
			return &models.ConflictStateError{Stderr: execErr.Stderr}
		}
	}
	return fmt.Errorf("failed to %s stash: %w", subcommand, err)
}

// StashDrop removes a stash entry.
func (e *Engine) StashDrop(ctx context.Context, root, ref string) error {
	if _, err := models.ParseStashRef(ref); err != nil {
		return err
	}
	if _, err := e.git(ctx, root, "stash", "drop", ref); err != nil {
		return fmt.Errorf("failed to drop stash: %w", err)
	}
	return nil
}

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mkarlen/grist/internal/models"
)

// CommitOptions configures a commit operation.
type CommitOptions struct {
	Message  string
	Amend    bool
	StageAll bool // stage everything before committing
}

// CommitResult reports the commit that was created.
type CommitResult struct {
	Hash string
}

// Commit creates or amends a commit. The auto-stage step, when requested,
// runs first; its failure stops the flow before the commit is attempted.
// Commits run under the long timeout since hooks may be slow.
func (e *Engine) Commit(ctx context.Context, root string, opts CommitOptions) (*CommitResult, error) {
	if strings.TrimSpace(opts.Message) == "" && !opts.Amend {
		return nil, &models.ValidationError{Field: "commit message", Reason: "empty"}
	}

	if opts.StageAll {
		if err := e.StageAll(ctx, root); err != nil {
			return nil, fmt.Errorf("stage step failed: %w", err)
		}
	}

	args := []string{"commit"}
	if opts.Amend {
		args = append(args, "--amend")
		if opts.Message == "" {
			args = append(args, "--no-edit")
		}
	}
	if opts.Message != "" {
		args = append(args, "-m", opts.Message)
	}

	res, err := e.gitSlow(ctx, root, args...)
	if err != nil {
		return nil, e.classifyCommitError(err, res.Stdout)
	}

	e.invalidateAfterMutation(root)

	hashRes, err := e.git(ctx, root, "rev-parse", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("commit succeeded but HEAD could not be read: %w", err)
	}
	return &CommitResult{Hash: strings.TrimSpace(hashRes.Stdout)}, nil
}

// classifyCommitError maps git's commit failures onto the engine taxonomy.
func (e *Engine) classifyCommitError(err error, stdout string) error {
	var execErr *models.ExecutionError
	if !errors.As(err, &execErr) {
		return fmt.Errorf("commit failed: %w", err)
	}
	combined := execErr.Stderr + stdout
	switch {
	case strings.Contains(combined, "nothing to commit") ||
		strings.Contains(combined, "nothing added to commit"):
		return models.ErrNothingToCommit
	case strings.Contains(combined, "hook"):
		return &models.HookFailureError{Stderr: execErr.Stderr}
	}
	return fmt.Errorf("commit failed: %w", err)
}

// UndoLastCommit moves the branch back one commit, keeping the undone
// commit's changes staged. Undoing the repository's first commit has no
// parent to reset to; deleting the branch ref returns the repository to the
// unborn-branch state with the index still populated, preserving the same
// "changes stay staged" semantics at the history root.
func (e *Engine) UndoLastCommit(ctx context.Context, root string) error {
	if _, err := e.git(ctx, root, "rev-parse", "--verify", "-q", "HEAD^"); err == nil {
		if _, err := e.git(ctx, root, "reset", "--soft", "HEAD~1"); err != nil {
			return fmt.Errorf("failed to undo last commit: %w", err)
		}
		e.invalidateAfterMutation(root)
		return nil
	}

	res, err := e.git(ctx, root, "symbolic-ref", "HEAD")
	if err != nil {
		return fmt.Errorf("cannot undo: HEAD is not on a branch: %w", err)
	}
	ref := strings.TrimSpace(res.Stdout)
	if !strings.HasPrefix(ref, "refs/heads/") {
		return &models.ValidationError{Field: "HEAD ref", Reason: fmt.Sprintf("unexpected ref %q", ref)}
	}

	if _, err := e.git(ctx, root, "update-ref", "-d", ref); err != nil {
		return fmt.Errorf("failed to undo initial commit: %w", err)
	}
	e.invalidateAfterMutation(root)
	return nil
}

// RevertCommit creates a revert of the given commit. A merge commit is
// reverted against its first parent, since the tool refuses a merge revert
// without a mainline.
func (e *Engine) RevertCommit(ctx context.Context, root, hash string) error {
	if err := models.ValidateCommitHash(hash); err != nil {
		return err
	}

	res, err := e.git(ctx, root, "rev-list", "--parents", "-n", "1", hash)
	if err != nil {
		return fmt.Errorf("failed to inspect commit %s: %w", hash, err)
	}
	parents := len(strings.Fields(res.Stdout)) - 1

	args := []string{"revert", "--no-edit"}
	if parents > 1 {
		args = append(args, "-m", "1")
	}
	args = append(args, hash)

	if _, err := e.gitSlow(ctx, root, args...); err != nil {
		var execErr *models.ExecutionError
		if errors.As(err, &execErr) && strings.Contains(execErr.Stderr, "CONFLICT") {
			e.invalidateAfterMutation(root)
			return &models.ConflictStateError{Stderr: execErr.Stderr}
		}
		return fmt.Errorf("failed to revert %s: %w", hash, err)
	}

	e.invalidateAfterMutation(root)
	return nil
}

package core

import (
	"context"
	"fmt"
)

// StagePath stages a single path, including untracked files.
func (e *Engine) StagePath(ctx context.Context, root, path string) error {
	resolved, err := ResolveWithinRoot(root, path)
	if err != nil {
		return err
	}
	if _, err := e.git(ctx, root, "add", "--", relToRoot(root, resolved)); err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	e.invalidateAfterMutation(root)
	return nil
}

// StageAll stages every change in the working tree.
func (e *Engine) StageAll(ctx context.Context, root string) error {
	if _, err := e.git(ctx, root, "add", "-A"); err != nil {
		return fmt.Errorf("failed to stage all changes: %w", err)
	}
	e.invalidateAfterMutation(root)
	return nil
}

// UnstagePath removes a single path from the index, leaving the working
// copy untouched.
func (e *Engine) UnstagePath(ctx context.Context, root, path string) error {
	resolved, err := ResolveWithinRoot(root, path)
	if err != nil {
		return err
	}
	if _, err := e.git(ctx, root, "reset", "-q", "--", relToRoot(root, resolved)); err != nil {
		return fmt.Errorf("failed to unstage %s: %w", path, err)
	}
	e.invalidateAfterMutation(root)
	return nil
}

// DiscardPath throws away the working-copy changes for a single path.
func (e *Engine) DiscardPath(ctx context.Context, root, path string) error {
	resolved, err := ResolveWithinRoot(root, path)
	if err != nil {
		return err
	}
	if _, err := e.git(ctx, root, "checkout", "--", relToRoot(root, resolved)); err != nil {
		return fmt.Errorf("failed to discard changes in %s: %w", path, err)
	}
	e.invalidateAfterMutation(root)
	return nil
}

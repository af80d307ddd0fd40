package core

import (
	"context"
	"fmt"
	"os"
)

// Conflict holds the three index stages of an unmerged path plus the
// current working-copy content with conflict markers.
type Conflict struct {
	Base    string
	Ours    string
	Theirs  string
	Current string
}

// LoadConflict reads all sides of an unmerged path. A stage that cannot be
// read degrades to an empty string: add/add and delete/modify conflicts
// legitimately lack one side.
func (e *Engine) LoadConflict(ctx context.Context, root, path string) (*Conflict, error) {
	resolved, err := ResolveWithinRoot(root, path)
	if err != nil {
		return nil, err
	}
	rel := relToRoot(root, resolved)

	conflict := &Conflict{
		Base:   e.readStage(ctx, root, 1, rel),
		Ours:   e.readStage(ctx, root, 2, rel),
		Theirs: e.readStage(ctx, root, 3, rel),
	}
	if data, err := os.ReadFile(resolved); err == nil {
		conflict.Current = string(data)
	}
	return conflict, nil
}

// readStage reads one index stage of an unmerged path; missing stages yield
// empty content.
func (e *Engine) readStage(ctx context.Context, root string, stage int, rel string) string {
	res, err := e.git(ctx, root, "show", fmt.Sprintf(":%d:%s", stage, rel))
	if err != nil {
		return ""
	}
	return res.Stdout
}

// ResolveConflict writes caller-supplied resolved content to the working
// file and stages exactly that path. It never attempts automatic merging.
// Calling it twice with the same content is idempotent: the path ends up
// with a single staged entry.
func (e *Engine) ResolveConflict(ctx context.Context, root, path, content string) error {
	resolved, err := ResolveWithinRoot(root, path)
	if err != nil {
		return err
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(resolved); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(resolved, []byte(content), mode); err != nil {
		return fmt.Errorf("failed to write resolved content: %w", err)
	}

	if _, err := e.git(ctx, root, "add", "--", relToRoot(root, resolved)); err != nil {
		return fmt.Errorf("failed to stage resolution: %w", err)
	}

	e.invalidateAfterMutation(root)
	return nil
}

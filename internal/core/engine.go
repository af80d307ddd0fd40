// Package core implements the working-tree state engine: it turns a
// repository's raw git state into typed records and performs granular
// mutations against it (hunk-level staging, conflict resolution, stash
// lifecycle, commit operations, remote sync tracking).
package core

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/mkarlen/grist/internal/cache"
	"github.com/mkarlen/grist/internal/config"
	"github.com/mkarlen/grist/internal/runner"
)

// Engine is the entry point for all working-tree queries and mutations. It
// holds no repository state of its own; every method takes a repository
// root. The only shared mutable state is the cache, which the cache package
// guards internally.
type Engine struct {
	run   runner.Commander
	cache *cache.RepoCache
	cfg   *config.Config
	log   *slog.Logger
}

// New creates an Engine. A nil logger disables engine logging.
func New(run runner.Commander, c *cache.RepoCache, cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if c == nil {
		c = cache.New()
	}
	return &Engine{run: run, cache: c, cfg: cfg, log: logger}
}

// Cache exposes the engine's cache for generation tracking and teardown.
func (e *Engine) Cache() *cache.RepoCache {
	return e.cache
}

// git runs a git query bounded by the short timeout.
func (e *Engine) git(ctx context.Context, root string, args ...string) (runner.Result, error) {
	return e.run.Run(ctx, root, append([]string{e.cfg.GitBinary}, args...), runner.Options{
		Timeout:        e.cfg.ShortTimeout(),
		MaxOutputBytes: e.cfg.MaxOutputBytes,
	})
}

// gitSlow runs a git mutation bounded by the long timeout, for operations
// that may invoke hooks or network I/O.
func (e *Engine) gitSlow(ctx context.Context, root string, args ...string) (runner.Result, error) {
	return e.run.Run(ctx, root, append([]string{e.cfg.GitBinary}, args...), runner.Options{
		Timeout:        e.cfg.LongTimeout(),
		MaxOutputBytes: e.cfg.MaxOutputBytes,
	})
}

// gitInput runs git with input piped to stdin, for patch application.
func (e *Engine) gitInput(ctx context.Context, root string, input []byte, args ...string) (runner.Result, error) {
	return e.run.RunWithInput(ctx, root, append([]string{e.cfg.GitBinary}, args...), input, runner.Options{
		Timeout:        e.cfg.ShortTimeout(),
		MaxOutputBytes: e.cfg.MaxOutputBytes,
	})
}

// canonicalRoot normalizes a repository root for use as a cache key.
func canonicalRoot(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return root
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func statusKey(root string) string      { return "status:" + canonicalRoot(root) }
func aheadBehindKey(root string) string { return "aheadbehind:" + canonicalRoot(root) }
func activityPrefix(root string) string { return "activity:" + canonicalRoot(root) + ":" }

// invalidateAfterMutation drops the caches a mutation could have made stale.
// It runs before the mutation returns, so the next read reloads.
func (e *Engine) invalidateAfterMutation(root string) {
	e.cache.Invalidate(statusKey(root), aheadBehindKey(root))
	e.cache.InvalidatePrefix(activityPrefix(root))
}

// Package cli implements the command-line interface for grist.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mkarlen/grist/internal/cache"
	"github.com/mkarlen/grist/internal/config"
	"github.com/mkarlen/grist/internal/core"
	"github.com/mkarlen/grist/internal/runner"
	"github.com/mkarlen/grist/internal/store"
)

var (
	flagRepo    string
	flagConfig  string
	flagVerbose bool
)

// cmdContext holds common resources for CLI commands.
type cmdContext struct {
	Config *config.Config
	Store  *store.Store
	Engine *core.Engine
	Root   string
}

// Close releases resources held by cmdContext.
func (c *cmdContext) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
}

// initContext builds config, engine, and repository root for a command.
func initContext() *cmdContext {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		exitError("%v", err)
	}

	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	root, err := resolveRepoRoot()
	if err != nil {
		exitError("%v", err)
	}

	run := runner.New(cfg.ExtraPath, logger)
	engine := core.New(run, cache.New(), cfg, logger)

	return &cmdContext{Config: cfg, Engine: engine, Root: root}
}

// initContextWithStore additionally opens the persistent store.
func initContextWithStore() *cmdContext {
	c := initContext()
	if c.Config.DatabasePath != "" {
		c.Store = openStoreAt(c.Config.DatabasePath)
	}
	return c
}

// openStore opens the persistent store without requiring a repository,
// for commands that only read the registry.
func openStore() *store.Store {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		exitError("%v", err)
	}
	if cfg.DatabasePath == "" {
		exitError("no database path configured")
	}
	return openStoreAt(cfg.DatabasePath)
}

func openStoreAt(path string) *store.Store {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		exitError("failed to create data directory: %v", err)
	}
	st, err := store.New(path)
	if err != nil {
		exitError("failed to open store: %v", err)
	}
	if err := st.Initialize(); err != nil {
		st.Close()
		exitError("failed to initialize store: %v", err)
	}
	return st
}

// resolveRepoRoot finds the repository containing --repo (or the working
// directory) by walking up to the directory that holds .git.
func resolveRepoRoot() (string, error) {
	dir := flagRepo
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && (info.IsDir() || info.Mode().IsRegular()) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a git repository (or any parent up to root)")
		}
		dir = parent
	}
}

var rootCmd = &cobra.Command{
	Use:   "grist",
	Short: "Working-tree state engine",
	Long: `grist reads a repository's version-control state into a consistent
application model and performs granular mutations on it: hunk-level
stage/unstage/discard, conflict resolution, stash lifecycle, and
remote sync tracking.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRepo, "repo", "", "repository path (default: working directory)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(unstageCmd)
	rootCmd.AddCommand(discardCmd)
	rootCmd.AddCommand(stashCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(revertCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(reposCmd)
}

// exitError prints an error and exits.
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

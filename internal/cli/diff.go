package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mkarlen/grist/internal/core"
	"github.com/mkarlen/grist/internal/models"
)

var (
	diffStaged    bool
	diffUntracked bool
	diffCommit    string
	diffStash     string
	diffHunks     bool
)

var diffCmd = &cobra.Command{
	Use:   "diff [path]",
	Short: "Show a diff",
	Long: `Show the diff for a path, a commit, or a stash entry.

Examples:
  grist diff main.go              Unstaged changes in main.go
  grist diff --staged main.go     Staged changes in main.go
  grist diff --commit a1b2c3d     Patch introduced by a commit
  grist diff --stash 'stash@{0}'  Patch held by a stash
  grist diff --hunks main.go      List hunks with their indices`,
	Args: cobra.MaximumNArgs(1),
	Run:  runDiff,
}

func init() {
	diffCmd.Flags().BoolVar(&diffStaged, "staged", false, "diff the index instead of the working tree")
	diffCmd.Flags().BoolVar(&diffUntracked, "untracked", false, "diff an untracked file against empty")
	diffCmd.Flags().StringVar(&diffCommit, "commit", "", "show the patch of a commit")
	diffCmd.Flags().StringVar(&diffStash, "stash", "", "show the patch of a stash entry")
	diffCmd.Flags().BoolVar(&diffHunks, "hunks", false, "list hunk headers with indices")
}

func runDiff(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	var (
		result *core.DiffResult
		err    error
	)
	switch {
	case diffCommit != "":
		result, err = c.Engine.LoadCommitDiff(ctx, c.Root, diffCommit)
	case diffStash != "":
		result, err = c.Engine.LoadStashDiff(ctx, c.Root, diffStash)
	case len(args) == 1:
		source := core.DiffUnstaged
		if diffStaged {
			source = core.DiffStaged
		} else if diffUntracked {
			source = core.DiffUntracked
		}
		result, err = c.Engine.LoadFileDiff(ctx, c.Root, args[0], source)
	default:
		exitError("a path, --commit, or --stash is required")
	}
	if err != nil {
		exitError("%v", err)
	}

	if diffHunks && len(args) == 1 {
		printHunkList(result)
		return
	}
	printDiff(result)
}

func printDiff(result *core.DiffResult) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)
	faint := color.New(color.Faint)

	for _, line := range result.Lines {
		switch line.Kind {
		case models.DiffLineAdd:
			green.Println(line.Text)
		case models.DiffLineRemove:
			red.Println(line.Text)
		case models.DiffLineHeader:
			cyan.Println(line.Text)
		case models.DiffLineMeta, models.DiffLineWarning:
			faint.Println(line.Text)
		default:
			fmt.Println(line.Text)
		}
	}
	fmt.Printf("\n%d addition(s), %d deletion(s)\n", result.Additions, result.Deletions)
}

func printHunkList(result *core.DiffResult) {
	cyan := color.New(color.FgCyan)
	seen := -1
	for _, line := range result.Lines {
		if line.Kind == models.DiffLineHeader && line.HunkIndex != seen {
			seen = line.HunkIndex
			cyan.Printf("[%d] %s\n", line.HunkIndex, line.Text)
		}
	}
	if seen < 0 {
		fmt.Println("no hunks")
	}
}

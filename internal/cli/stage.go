package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarlen/grist/internal/core"
)

var (
	stageHunk   int
	stageAllOpt bool
)

var stageCmd = &cobra.Command{
	Use:   "stage [path]",
	Short: "Stage changes",
	Long: `Stage a file, all files, or a single hunk.

Examples:
  grist stage main.go            Stage all changes in main.go
  grist stage --all              Stage everything
  grist stage --hunk 1 main.go   Stage only hunk 1 of main.go`,
	Args: cobra.MaximumNArgs(1),
	Run:  runStage,
}

var unstageCmd = &cobra.Command{
	Use:   "unstage <path>",
	Short: "Unstage changes",
	Long:  `Remove a file, or a single hunk of it, from the index.`,
	Args:  cobra.ExactArgs(1),
	Run:   runUnstage,
}

var discardCmd = &cobra.Command{
	Use:   "discard <path>",
	Short: "Discard working-copy changes",
	Long:  `Throw away unstaged changes in a file, or a single hunk of them. This cannot be undone.`,
	Args:  cobra.ExactArgs(1),
	Run:   runDiscard,
}

func init() {
	stageCmd.Flags().IntVar(&stageHunk, "hunk", -1, "stage only the hunk with this index")
	stageCmd.Flags().BoolVar(&stageAllOpt, "all", false, "stage every change")
	unstageCmd.Flags().IntVar(&stageHunk, "hunk", -1, "unstage only the hunk with this index")
	discardCmd.Flags().IntVar(&stageHunk, "hunk", -1, "discard only the hunk with this index")
}

func runStage(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	if stageAllOpt {
		if err := c.Engine.StageAll(ctx, c.Root); err != nil {
			exitError("%v", err)
		}
		fmt.Println("Staged all changes")
		return
	}
	if len(args) == 0 {
		exitError("a path or --all is required")
	}

	if stageHunk >= 0 {
		applyHunkByIndex(ctx, c, args[0], core.DiffUnstaged, core.ActionStage)
		return
	}
	if err := c.Engine.StagePath(ctx, c.Root, args[0]); err != nil {
		exitError("%v", err)
	}
	fmt.Printf("Staged %s\n", args[0])
}

func runUnstage(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	if stageHunk >= 0 {
		applyHunkByIndex(ctx, c, args[0], core.DiffStaged, core.ActionUnstage)
		return
	}
	if err := c.Engine.UnstagePath(ctx, c.Root, args[0]); err != nil {
		exitError("%v", err)
	}
	fmt.Printf("Unstaged %s\n", args[0])
}

func runDiscard(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	if stageHunk >= 0 {
		applyHunkByIndex(ctx, c, args[0], core.DiffUnstaged, core.ActionDiscard)
		return
	}
	if err := c.Engine.DiscardPath(ctx, c.Root, args[0]); err != nil {
		exitError("%v", err)
	}
	fmt.Printf("Discarded changes in %s\n", args[0])
}

// applyHunkByIndex loads the relevant diff, extracts standalone hunk
// patches, and applies the one the user picked.
func applyHunkByIndex(ctx context.Context, c *cmdContext, path string, source core.DiffSource, action core.HunkAction) {
	diff, err := c.Engine.LoadFileDiff(ctx, c.Root, path, source)
	if err != nil {
		exitError("%v", err)
	}
	hunks, err := core.ExtractHunkPatches(diff.Raw)
	if err != nil {
		exitError("%v", err)
	}
	if stageHunk >= len(hunks) {
		exitError("hunk %d not found: %s has %d hunk(s)", stageHunk, path, len(hunks))
	}

	if err := c.Engine.ApplyHunk(ctx, c.Root, path, source, action, hunks[stageHunk].PatchText); err != nil {
		exitError("%v", err)
	}
	fmt.Printf("Applied %s to hunk %d of %s\n", action, stageHunk, path)
}

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarlen/grist/internal/core"
	"github.com/mkarlen/grist/internal/models"
)

var (
	commitMessage string
	commitAmend   bool
	commitAll     bool
)

var commitCmd = &cobra.Command{
	Use:   "commit -m <message>",
	Short: "Record staged changes",
	Long: `Create a commit from the staged changes.

Examples:
  grist commit -m "fix parser"      Commit staged changes
  grist commit -am "fix parser"     Stage everything, then commit
  grist commit --amend              Amend the last commit, keeping its message`,
	Run: runCommit,
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the last commit, keeping its changes staged",
	Long: `Move the branch back one commit without touching the index or working
tree. Undoing the repository's first commit returns the branch to the
unborn state with the commit's changes still staged.`,
	Run: runUndo,
}

var revertCmd = &cobra.Command{
	Use:   "revert <hash>",
	Short: "Revert a commit",
	Long: `Create a new commit that reverses the given commit. A merge commit is
reverted against its first parent.`,
	Args: cobra.ExactArgs(1),
	Run:  runRevert,
}

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "commit message")
	commitCmd.Flags().BoolVar(&commitAmend, "amend", false, "amend the previous commit")
	commitCmd.Flags().BoolVarP(&commitAll, "all", "a", false, "stage all changes first")
}

func runCommit(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	result, err := c.Engine.Commit(context.Background(), c.Root, core.CommitOptions{
		Message:  commitMessage,
		Amend:    commitAmend,
		StageAll: commitAll,
	})
	if err != nil {
		if errors.Is(err, models.ErrNothingToCommit) {
			fmt.Println("Nothing to commit")
			return
		}
		var hookErr *models.HookFailureError
		if errors.As(err, &hookErr) {
			exitError("commit blocked by hook: %v", hookErr)
		}
		exitError("%v", err)
	}
	fmt.Printf("Committed %s\n", shortHash(result.Hash))
}

func runUndo(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	if err := c.Engine.UndoLastCommit(context.Background(), c.Root); err != nil {
		exitError("%v", err)
	}
	fmt.Println("Undid last commit; its changes remain staged")
}

func runRevert(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	if err := c.Engine.RevertCommit(context.Background(), c.Root, args[0]); err != nil {
		var conflict *models.ConflictStateError
		if errors.As(err, &conflict) {
			exitError("revert produced conflicts: %v", conflict)
		}
		exitError("%v", err)
	}
	fmt.Printf("Reverted %s\n", shortHash(args[0]))
}

// shortHash returns the first 8 characters of a hash.
func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

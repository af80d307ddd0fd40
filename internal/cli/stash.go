package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mkarlen/grist/internal/models"
)

var stashMessage string

var stashCmd = &cobra.Command{
	Use:   "stash",
	Short: "Stash uncommitted changes",
	Long: `Save uncommitted changes and restore a clean working tree.

When run without a subcommand, acts as 'stash push'.

Examples:
  grist stash                       Save all changes to a new stash
  grist stash -m "work in progress" Save with a custom message
  grist stash list                  List all stashes
  grist stash pop                   Apply and remove the latest stash
  grist stash apply 'stash@{1}'     Apply a specific stash without removing
  grist stash drop 'stash@{0}'      Remove a specific stash
  grist stash show                  Show changes in the latest stash`,
	Run: runStashPush,
}

var stashPushCmd = &cobra.Command{
	Use:   "push [-m <message>]",
	Short: "Save changes to a new stash",
	Run:   runStashPush,
}

var stashListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stashes",
	Run:   runStashList,
}

var stashShowCmd = &cobra.Command{
	Use:   "show [stash@{N}]",
	Short: "Show changes in a stash",
	Args:  cobra.MaximumNArgs(1),
	Run:   runStashShow,
}

var stashApplyCmd = &cobra.Command{
	Use:   "apply [stash@{N}]",
	Short: "Apply a stash without removing it",
	Args:  cobra.MaximumNArgs(1),
	Run:   runStashApply,
}

var stashPopCmd = &cobra.Command{
	Use:   "pop [stash@{N}]",
	Short: "Apply and remove a stash",
	Args:  cobra.MaximumNArgs(1),
	Run:   runStashPop,
}

var stashDropCmd = &cobra.Command{
	Use:   "drop [stash@{N}]",
	Short: "Remove a stash",
	Args:  cobra.MaximumNArgs(1),
	Run:   runStashDrop,
}

func init() {
	stashCmd.PersistentFlags().StringVarP(&stashMessage, "message", "m", "", "stash message")
	stashCmd.AddCommand(stashPushCmd)
	stashCmd.AddCommand(stashListCmd)
	stashCmd.AddCommand(stashShowCmd)
	stashCmd.AddCommand(stashApplyCmd)
	stashCmd.AddCommand(stashPopCmd)
	stashCmd.AddCommand(stashDropCmd)
}

func runStashPush(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	if err := c.Engine.StashChanges(context.Background(), c.Root, stashMessage); err != nil {
		exitError("%v", err)
	}
	fmt.Println("Saved working tree to stash")
}

func runStashList(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	records, err := c.Engine.StashList(context.Background(), c.Root)
	if err != nil {
		exitError("%v", err)
	}
	if len(records) == 0 {
		fmt.Println("No stashes")
		return
	}

	yellow := color.New(color.FgYellow)
	for _, rec := range records {
		yellow.Printf("%s", rec.Ref)
		fmt.Printf("  %s  (%s)\n", rec.Message, rec.RelativeTime)
	}
}

func runStashShow(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	ref := stashRefArg(args)
	result, err := c.Engine.LoadStashDiff(context.Background(), c.Root, ref)
	if err != nil {
		exitError("%v", err)
	}
	printDiff(result)
}

func runStashApply(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	ref := stashRefArg(args)
	err := c.Engine.StashApply(context.Background(), c.Root, ref)
	reportStashRestore(err, "Applied", ref)
}

func runStashPop(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	ref := stashRefArg(args)
	err := c.Engine.StashPop(context.Background(), c.Root, ref)
	reportStashRestore(err, "Popped", ref)
}

func runStashDrop(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	ref := stashRefArg(args)
	if err := c.Engine.StashDrop(context.Background(), c.Root, ref); err != nil {
		exitError("%v", err)
	}
	fmt.Printf("Dropped %s\n", ref)
}

// stashRefArg accepts either a full stash@{N} ref or a bare index and
// returns the canonical ref. Validation proper happens in the engine.
func stashRefArg(args []string) string {
	if len(args) == 0 {
		return "stash@{0}"
	}
	if n, err := strconv.Atoi(args[0]); err == nil {
		if ref, err := models.FormatStashRef(n); err == nil {
			return ref
		}
	}
	return args[0]
}

func reportStashRestore(err error, verb, ref string) {
	if err == nil {
		fmt.Printf("%s %s\n", verb, ref)
		return
	}
	var conflict *models.ConflictStateError
	if errors.As(err, &conflict) {
		color.New(color.FgYellow).Printf("%s %s with conflicts; resolve and stage the affected paths\n", verb, ref)
		return
	}
	exitError("%v", err)
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var activityDays int

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show daily commit activity",
	Long:  `Show a dense daily commit-count series over the lookback window, zero-count days included.`,
	Run:   runActivity,
}

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List known repositories",
	Run:   runRepos,
}

var reposForgetCmd = &cobra.Command{
	Use:   "forget <root>",
	Short: "Remove a repository from the registry",
	Args:  cobra.ExactArgs(1),
	Run:   runReposForget,
}

func init() {
	activityCmd.Flags().IntVar(&activityDays, "days", 0, "lookback window in days (default from config)")
	reposCmd.AddCommand(reposForgetCmd)
}

func runActivity(cmd *cobra.Command, args []string) {
	c := initContextWithStore()
	defer c.Close()

	result, err := c.Engine.Activity(context.Background(), c.Root, activityDays)
	if err != nil {
		exitError("%v", err)
	}

	green := color.New(color.FgGreen)
	for _, day := range result.Series {
		if day.Count == 0 {
			fmt.Printf("%s\n", day.Date)
			continue
		}
		fmt.Printf("%s ", day.Date)
		green.Printf("%s %d\n", strings.Repeat("#", min(day.Count, 40)), day.Count)
	}
	fmt.Printf("\n%d commit(s) in %d day(s)\n", result.Total, len(result.Series))

	if c.Store != nil {
		if data, err := json.Marshal(result.Series); err == nil {
			_ = c.Store.SaveActivity(c.Root, len(result.Series), result.Total, data)
		}
	}
}

func runRepos(cmd *cobra.Command, args []string) {
	// Listing known repositories works from anywhere, no repo required.
	st := openStore()
	defer st.Close()

	entries, err := st.ListRepos()
	if err != nil {
		exitError("%v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No known repositories")
		return
	}

	yellow := color.New(color.FgYellow)
	for _, entry := range entries {
		fmt.Printf("%s ", entry.Root)
		yellow.Printf("[%s]", entry.Branch)
		fmt.Printf(" %d staged, %d unstaged, %d untracked",
			entry.StagedCount, entry.UnstagedCount, entry.UntrackedCount)
		if entry.ConflictCount > 0 {
			color.New(color.FgRed).Printf(", %d conflicted", entry.ConflictCount)
		}
		fmt.Println()
	}
}

func runReposForget(cmd *cobra.Command, args []string) {
	st := openStore()
	defer st.Close()

	if err := st.ForgetRepo(args[0]); err != nil {
		exitError("%v", err)
	}
	fmt.Printf("Forgot %s\n", args[0])
}

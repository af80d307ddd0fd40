package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mkarlen/grist/internal/models"
)

var logLimit int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Show commits relative to the upstream",
	Long:  `List outgoing commits (ahead of the tracking branch) and incoming commits (behind it).`,
	Run:   runSync,
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent commits",
	Run:   runLog,
}

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "number of commits to show")
}

func runSync(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	state, err := c.Engine.AheadBehind(ctx, c.Root)
	if err != nil {
		exitError("%v", err)
	}
	if !state.HasUpstream {
		fmt.Println("No upstream configured")
		return
	}

	commits, err := c.Engine.LoadSyncCommits(ctx, c.Root)
	if err != nil {
		exitError("%v", err)
	}

	fmt.Printf("Tracking %s: %d ahead, %d behind\n", state.TrackingBranch, state.Ahead, state.Behind)
	if len(commits.Outgoing) > 0 {
		color.New(color.FgGreen).Println("\nOutgoing:")
		printCommits(commits.Outgoing)
	}
	if len(commits.Incoming) > 0 {
		color.New(color.FgCyan).Println("\nIncoming:")
		printCommits(commits.Incoming)
	}
}

func runLog(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	commits, err := c.Engine.LoadRecentCommits(context.Background(), c.Root, logLimit)
	if err != nil {
		exitError("%v", err)
	}
	printCommits(commits)
}

func printCommits(commits []models.CommitRecord) {
	yellow := color.New(color.FgYellow)
	faint := color.New(color.Faint)
	for _, commit := range commits {
		fmt.Printf("%s ", commit.GraphLane)
		yellow.Printf("%s", commit.ShortHash)
		fmt.Printf(" %s ", commit.Message)
		faint.Printf("(%s, %s)\n", commit.Author, commit.RelativeTime)
	}
}

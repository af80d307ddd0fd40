package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mkarlen/grist/internal/models"
	"github.com/mkarlen/grist/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the working tree status",
	Long:  `Show conflicts, staged, unstaged, and untracked changes, plus the branch's sync state.`,
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	c := initContextWithStore()
	defer c.Close()

	snapshot, err := c.Engine.LoadStatus(context.Background(), c.Root)
	if err != nil {
		exitError("failed to load status: %v", err)
	}

	if snapshot.Branch != "" {
		fmt.Printf("On branch %s\n", snapshot.Branch)
	} else {
		fmt.Println("HEAD detached")
	}
	printSyncSummary(snapshot)

	if snapshot.Clean() {
		fmt.Println("\nNothing to commit, working tree clean")
		recordRepo(c, snapshot)
		return
	}

	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	if len(snapshot.Conflicts) > 0 {
		fmt.Println("\nUnmerged paths:")
		cyan.Println("  (use \"grist resolve <path>\" after fixing conflicts)")
		printRecords(snapshot.Conflicts, red)
	}
	if len(snapshot.Staged) > 0 {
		fmt.Println("\nChanges to be committed:")
		cyan.Println("  (use \"grist unstage <path>\" to unstage)")
		printRecords(snapshot.Staged, green)
	}
	if len(snapshot.Unstaged) > 0 {
		fmt.Println("\nChanges not staged for commit:")
		cyan.Println("  (use \"grist stage <path>\" to stage)")
		printRecords(snapshot.Unstaged, yellow)
	}
	if len(snapshot.Untracked) > 0 {
		fmt.Println("\nUntracked files:")
		printRecords(snapshot.Untracked, red)
	}

	recordRepo(c, snapshot)
}

func printSyncSummary(snapshot *models.RepoSnapshot) {
	if !snapshot.Sync.HasUpstream {
		return
	}
	switch {
	case snapshot.Sync.Ahead > 0 && snapshot.Sync.Behind > 0:
		fmt.Printf("Diverged from %s: %d ahead, %d behind\n",
			snapshot.Sync.TrackingBranch, snapshot.Sync.Ahead, snapshot.Sync.Behind)
	case snapshot.Sync.Ahead > 0:
		fmt.Printf("Ahead of %s by %d commit(s)\n", snapshot.Sync.TrackingBranch, snapshot.Sync.Ahead)
	case snapshot.Sync.Behind > 0:
		fmt.Printf("Behind %s by %d commit(s)\n", snapshot.Sync.TrackingBranch, snapshot.Sync.Behind)
	default:
		fmt.Printf("Up to date with %s\n", snapshot.Sync.TrackingBranch)
	}
}

func printRecords(records []models.ChangeRecord, c *color.Color) {
	fmt.Println()
	for _, rec := range records {
		label := statusLabel(rec)
		if rec.OldPath != "" {
			c.Printf("        %s%s -> %s\n", label, rec.OldPath, rec.Path)
		} else {
			c.Printf("        %s%s\n", label, rec.Path)
		}
	}
}

func statusLabel(rec models.ChangeRecord) string {
	switch {
	case rec.Category == models.CategoryConflict:
		return "both modified: "
	case rec.Category == models.CategoryUntracked:
		return ""
	case rec.OldPath != "":
		return "renamed:  "
	case rec.StatusCode[0] == 'A':
		return "new:      "
	case rec.StatusCode[0] == 'D' || rec.StatusCode[1] == 'D':
		return "deleted:  "
	default:
		return "modified: "
	}
}

// recordRepo persists the snapshot summary so the shell can render known
// repositories on a cold start.
func recordRepo(c *cmdContext, snapshot *models.RepoSnapshot) {
	if c.Store == nil {
		return
	}
	entry := &store.RepoEntry{
		Root:           snapshot.Root,
		Branch:         snapshot.Branch,
		ConflictCount:  len(snapshot.Conflicts),
		StagedCount:    len(snapshot.Staged),
		UnstagedCount:  len(snapshot.Unstaged),
		UntrackedCount: len(snapshot.Untracked),
	}
	if err := c.Store.TouchRepo(entry); err != nil {
		return
	}
	if len(snapshot.Activity) > 0 {
		total := 0
		for _, day := range snapshot.Activity {
			total += day.Count
		}
		if data, err := json.Marshal(snapshot.Activity); err == nil {
			_ = c.Store.SaveActivity(snapshot.Root, len(snapshot.Activity), total, data)
		}
	}
}

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	resolveOurs   bool
	resolveTheirs bool
	resolveFile   string
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts <path>",
	Short: "Show the three sides of an unmerged path",
	Args:  cobra.ExactArgs(1),
	Run:   runConflicts,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Record a conflict resolution",
	Long: `Write resolved content for an unmerged path and stage it.

The content comes from --ours, --theirs, --file, or — with no flag —
the current working copy (after the conflict markers were edited away).`,
	Args: cobra.ExactArgs(1),
	Run:  runResolve,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveOurs, "ours", false, "resolve with our side")
	resolveCmd.Flags().BoolVar(&resolveTheirs, "theirs", false, "resolve with their side")
	resolveCmd.Flags().StringVar(&resolveFile, "file", "", "resolve with this file's content")
}

func runConflicts(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	conflict, err := c.Engine.LoadConflict(context.Background(), c.Root, args[0])
	if err != nil {
		exitError("%v", err)
	}

	cyan := color.New(color.FgCyan)
	for _, side := range []struct {
		name    string
		content string
	}{
		{"base", conflict.Base},
		{"ours", conflict.Ours},
		{"theirs", conflict.Theirs},
	} {
		if side.content == "" {
			cyan.Printf("--- %s: (missing)\n", side.name)
			continue
		}
		cyan.Printf("--- %s:\n", side.name)
		fmt.Print(side.content)
		if len(side.content) > 0 && side.content[len(side.content)-1] != '\n' {
			fmt.Println()
		}
	}
}

func runResolve(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	path := args[0]
	conflict, err := c.Engine.LoadConflict(ctx, c.Root, path)
	if err != nil {
		exitError("%v", err)
	}

	var content string
	switch {
	case resolveOurs:
		content = conflict.Ours
	case resolveTheirs:
		content = conflict.Theirs
	case resolveFile != "":
		data, err := os.ReadFile(resolveFile)
		if err != nil {
			exitError("failed to read %s: %v", resolveFile, err)
		}
		content = string(data)
	default:
		content = conflict.Current
	}

	if err := c.Engine.ResolveConflict(ctx, c.Root, path, content); err != nil {
		exitError("%v", err)
	}
	fmt.Printf("Resolved %s\n", path)
}

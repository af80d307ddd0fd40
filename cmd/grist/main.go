// Command grist is the working-tree state engine CLI.
package main

import (
	"os"

	"github.com/mkarlen/grist/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

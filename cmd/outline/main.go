// Outline CLI, a thin command-line front end for the generation client.
package main

import (
	"os"

	"github.com/outlinehq/outline/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

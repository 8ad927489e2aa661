package main

import (
	"fmt"
	"os"

	"github.com/marmos91/dittoapi/cmd/dittoapi/commands"
	"github.com/marmos91/dittoapi/pkg/lifecycle"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	err := commands.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(lifecycle.ExitCode(err))
}

// Command tectonic runs the tick-database server and its operator CLI.
package main

import (
	"fmt"
	"os"

	"github.com/erismart/tectonic/cmd/tectonic/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// Package config implements "tectonic config" subcommands for inspecting
// the server's effective configuration.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the "config" subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect server configuration",
	Long: `Inspect tectonic's effective configuration.

Subcommands:
  show    Display the effective configuration
  schema  Generate a JSON schema for the configuration file`,
}

func init() {
	Cmd.AddCommand(showCmd, schemaCmd)
}

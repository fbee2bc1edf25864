// Package commands implements the tectonic CLI's command tree.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/erismart/tectonic/cmd/tectonic/commands/backup"
	"github.com/erismart/tectonic/cmd/tectonic/commands/config"
	"github.com/erismart/tectonic/cmd/tectonic/commands/restore"
)

var (
	// Version information, injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "tectonic",
	Short: "tectonic is a tick-database server",
	Long: `tectonic stores append-only streams of market-data ticks in a
compact binary format and serves them over a line-oriented TCP protocol.

Use "tectonic [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

// GetConfigFile returns the --config flag value shared across subcommands.
func GetConfigFile() string {
	return cfgFile
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/tectonic/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(backup.Cmd)
	rootCmd.AddCommand(restore.Cmd)
}

package config

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/erismart/tectonic/internal/cli/output"
	"github.com/erismart/tectonic/internal/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display effective configuration",
	Long: `Display tectonic's effective configuration: file, environment
variables, and defaults merged together.

By default outputs YAML. Use --output to change format.

Examples:
  tectonic config show
  tectonic config show --output json
  tectonic config show --config /etc/tectonic/config.yaml`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, cfg)
	default:
		return output.PrintYAML(os.Stdout, cfg)
	}
}

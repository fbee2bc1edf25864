package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erismart/tectonic/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample tectonic configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/tectonic/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  tectonic init

  # Initialize with custom path
  tectonic init --config /etc/tectonic/config.yaml

  # Force overwrite existing config
  tectonic init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.DefaultConfigPath()
	}

	configPath, err := config.Init(path, initForce)
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the server with: tectonic serve")
	fmt.Printf("  3. Or specify a custom config: tectonic serve --config %s\n", configPath)
	fmt.Println("\nSecurity note:")
	fmt.Println("  A random JWT secret has been generated for the control plane API.")
	fmt.Println("  Rotate it before deploying to production.")

	return nil
}

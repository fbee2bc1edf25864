package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erismart/tectonic/internal/config"
	"github.com/erismart/tectonic/internal/logger"
	cpstore "github.com/erismart/tectonic/pkg/controlplane/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run control plane database migrations",
	Long: `Apply pending control plane database migrations.

Opening the control plane store already brings its schema up to date
(AutoMigrate for SQLite, golang-migrate for Postgres); this command
exists so operators can run that step standalone, without starting the
TCP server, after an upgrade.

Examples:
  tectonic migrate
  tectonic migrate --config /etc/tectonic/config.yaml`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	logger.Info("running control plane migrations", "type", cfg.Database.Type)

	if _, err := cpstore.Open(cpstore.Config{
		Type:     cpstore.DatabaseType(cfg.Database.Type),
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
	}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Printf("Migrations completed successfully (database type: %s)\n", cfg.Database.Type)
	return nil
}

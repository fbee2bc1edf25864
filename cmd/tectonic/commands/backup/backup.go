// Package backup implements "tectonic backup", uploading tick-store
// files to S3 and recording them in the control plane database.
package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/erismart/tectonic/internal/config"
	"github.com/erismart/tectonic/internal/logger"
	"github.com/erismart/tectonic/pkg/backup"
	cpstore "github.com/erismart/tectonic/pkg/controlplane/store"
)

var configFile string

// Cmd is the "backup" subcommand.
var Cmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up tick-store files to S3",
	Long: `Upload every .dtf file in the store's data folder to S3, under a
key namespaced by the current time, along with an XDR-encoded manifest
recording each file's record count and SHA-256 checksum.

Examples:
  tectonic backup
  tectonic backup --config /etc/tectonic/config.yaml`,
	RunE: runBackup,
}

func init() {
	Cmd.Flags().StringVar(&configFile, "config", "", "Path to config file")
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.MustLoad(configFile)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Backup.Bucket == "" {
		return fmt.Errorf("backup: no bucket configured (set backup.bucket)")
	}

	db, err := cpstore.Open(cpstore.Config{
		Type:     cpstore.DatabaseType(cfg.Database.Type),
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
	})
	if err != nil {
		return fmt.Errorf("backup: open control plane database: %w", err)
	}

	client, err := backup.NewClient(ctx, backup.Config{
		Bucket: cfg.Backup.Bucket,
		Region: cfg.Backup.Region,
		Prefix: cfg.Backup.Prefix,
	})
	if err != nil {
		return fmt.Errorf("backup: build s3 client: %w", err)
	}

	now := time.Now().Unix()
	manifest, err := backup.Run(ctx, client, backup.Config{
		Bucket: cfg.Backup.Bucket,
		Region: cfg.Backup.Region,
		Prefix: cfg.Backup.Prefix,
	}, cfg.Store.DtfFolder, db.DB, now)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}

	fmt.Printf("Backup complete (timestamp %d): %d file(s) uploaded to s3://%s\n", now, len(manifest.Files), cfg.Backup.Bucket)
	for _, f := range manifest.Files {
		fmt.Printf("  %-32s records=%-8d sha256=%s\n", f.Name, f.Count, f.Checksum)
	}

	return nil
}

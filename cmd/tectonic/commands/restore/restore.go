// Package restore implements "tectonic restore", downloading tick-store
// files previously backed up to S3.
package restore

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erismart/tectonic/internal/config"
	"github.com/erismart/tectonic/internal/logger"
	"github.com/erismart/tectonic/pkg/backup"
)

var (
	configFile       string
	restoreTimestamp int64
	restoreForce     bool
)

// Cmd is the "restore" subcommand.
var Cmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore tick-store files from an S3 backup",
	Long: `Download the manifest filed under --timestamp and every file it
names, verifying each file's SHA-256 checksum before writing it into the
store's data folder.

IMPORTANT: the tectonic server should be stopped before restoring.

Examples:
  tectonic restore --timestamp 1700000000
  tectonic restore --timestamp 1700000000 --force`,
	RunE: runRestore,
}

func init() {
	Cmd.Flags().StringVar(&configFile, "config", "", "Path to config file")
	Cmd.Flags().Int64Var(&restoreTimestamp, "timestamp", 0, "Backup timestamp to restore (required)")
	Cmd.Flags().BoolVar(&restoreForce, "force", false, "Skip confirmation prompt")
	_ = Cmd.MarkFlagRequired("timestamp")
}

func runRestore(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("restore: no bucket configured (set backup.bucket)")
	}

	if !restoreForce {
		fmt.Printf("WARNING: this will overwrite files in %s\n", cfg.Store.DtfFolder)
		fmt.Printf("  Source: s3://%s timestamp=%d\n", cfg.Backup.Bucket, restoreTimestamp)
		fmt.Print("Type 'yes' to continue: ")

		var response string
		if _, err := fmt.Scanln(&response); err != nil || strings.ToLower(response) != "yes" {
			return fmt.Errorf("restore cancelled")
		}
	}

	client, err := backup.NewClient(ctx, backup.Config{
		Bucket: cfg.Backup.Bucket,
		Region: cfg.Backup.Region,
		Prefix: cfg.Backup.Prefix,
	})
	if err != nil {
		return fmt.Errorf("restore: build s3 client: %w", err)
	}

	manifest, err := backup.Restore(ctx, client, backup.Config{
		Bucket: cfg.Backup.Bucket,
		Region: cfg.Backup.Region,
		Prefix: cfg.Backup.Prefix,
	}, cfg.Store.DtfFolder, restoreTimestamp)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	fmt.Printf("Restore complete: %d file(s) written to %s\n", len(manifest.Files), cfg.Store.DtfFolder)
	return nil
}

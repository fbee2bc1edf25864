//go:build integration

package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/erismart/tectonic/pkg/controlplane/models"
	"github.com/erismart/tectonic/pkg/dtf"
)

// Run against a localstack instance: LOCALSTACK_ENDPOINT=http://localhost:4566 go test -tags integration ./pkg/backup/...

func testConfig(bucket string) Config {
	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}
	return Config{
		Bucket:          bucket,
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		ForcePathStyle:  true,
	}
}

func createBucket(t *testing.T, client *s3.Client, bucket string) {
	t.Helper()
	ctx := context.Background()
	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}
	t.Cleanup(func() {
		list, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
		if err == nil {
			for _, obj := range list.Contents {
				_, _ = client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: obj.Key})
			}
		}
		_, _ = client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)})
	})
}

func TestRunThenRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig("tectonic-backup-test")
	client, err := NewClient(ctx, cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	createBucket(t, client, cfg.Bucket)

	dtfFolder := t.TempDir()
	if err := dtf.Encode(filepath.Join(dtfFolder, "btc.dtf"), "btc", []dtf.Update{{Ts: 1, Price: 100, Size: 1}}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cp.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	manifest, err := Run(ctx, client, cfg, dtfFolder, db, 1700000000)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(manifest.Files) != 1 || manifest.Files[0].Name != "btc.dtf" {
		t.Fatalf("manifest = %+v, want one btc.dtf entry", manifest)
	}

	var records []models.BackupRecord
	if err := db.Find(&records).Error; err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(records) != 1 || records[0].StoreName != "btc" {
		t.Fatalf("records = %+v, want one btc record", records)
	}

	restoreFolder := t.TempDir()
	restored, err := Restore(ctx, client, cfg, restoreFolder, 1700000000)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(restored.Files) != 1 {
		t.Fatalf("restored = %+v, want one file", restored)
	}

	if _, err := os.Stat(filepath.Join(restoreFolder, "btc.dtf")); err != nil {
		t.Fatalf("restored file missing: %v", err)
	}
}

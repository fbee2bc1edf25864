// Package backup copies tick-store files to S3 and back, grounded on the
// same static-credential S3 client construction the teacher's content store
// uses, with an XDR-encoded manifest (checksums, record counts) standing in
// for the teacher's path-based object-key disaster-recovery story.
package backup

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	xdr "github.com/rasky/go-xdr/xdr2"
	"gorm.io/gorm"

	"github.com/erismart/tectonic/pkg/controlplane/models"
	"github.com/erismart/tectonic/pkg/dtf"
)

// Config describes the S3 bucket and credentials a backup run targets.
type Config struct {
	Bucket          string
	Region          string
	Prefix          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// NewClient builds an S3 client from cfg. When Endpoint is set, path-style
// addressing is honored so this also targets S3-compatible stores (MinIO,
// R2) for local testing, the same way the teacher's NewS3ClientFromConfig
// does.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("backup: load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}), nil
}

// FileManifest describes one .dtf file captured by a backup run.
type FileManifest struct {
	Name     string
	Count    uint64
	Checksum string // hex SHA-256 of the raw file bytes
}

// Manifest is XDR-encoded and uploaded alongside the files it describes, so
// Restore can verify every file without trusting S3 object metadata.
type Manifest struct {
	CreatedAtUnix int64
	Files         []FileManifest
}

func manifestKey(prefix string, timestamp int64) string {
	return objectKey(prefix, timestamp, "manifest.xdr")
}

func objectKey(prefix string, timestamp int64, name string) string {
	key := fmt.Sprintf("%d/%s", timestamp, name)
	if prefix == "" {
		return key
	}
	return strings.TrimSuffix(prefix, "/") + "/" + key
}

// Run uploads every .dtf file under dtfFolder to S3 under a key namespaced
// by now (a Unix timestamp), writes an XDR-encoded manifest next to them,
// and records one BackupRecord per file in db.
func Run(ctx context.Context, client *s3.Client, cfg Config, dtfFolder string, db *gorm.DB, now int64) (Manifest, error) {
	entries, err := os.ReadDir(dtfFolder)
	if err != nil {
		return Manifest{}, fmt.Errorf("backup: read %s: %w", dtfFolder, err)
	}

	manifest := Manifest{CreatedAtUnix: now}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".dtf") {
			continue
		}

		path := filepath.Join(dtfFolder, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return Manifest{}, fmt.Errorf("backup: read %s: %w", path, err)
		}

		count, err := dtf.GetSize(path)
		if err != nil {
			return Manifest{}, fmt.Errorf("backup: size %s: %w", path, err)
		}

		sum := sha256.Sum256(data)
		checksum := hex.EncodeToString(sum[:])
		key := objectKey(cfg.Prefix, now, entry.Name())

		if _, err := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(cfg.Bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		}); err != nil {
			return Manifest{}, fmt.Errorf("backup: upload %s: %w", key, err)
		}

		manifest.Files = append(manifest.Files, FileManifest{
			Name:     entry.Name(),
			Count:    count,
			Checksum: checksum,
		})

		storeName := strings.TrimSuffix(entry.Name(), ".dtf")
		if err := db.Create(&models.BackupRecord{
			StoreName: storeName,
			S3Key:     key,
			Count:     count,
			Checksum:  checksum,
		}).Error; err != nil {
			return Manifest{}, fmt.Errorf("backup: record %s: %w", storeName, err)
		}
	}

	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("backup: encode manifest: %w", err)
	}
	if _, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(cfg.Bucket),
		Key:    aws.String(manifestKey(cfg.Prefix, now)),
		Body:   bytes.NewReader(buf.Bytes()),
	}); err != nil {
		return Manifest{}, fmt.Errorf("backup: upload manifest: %w", err)
	}

	return manifest, nil
}

// Restore fetches the manifest filed under timestamp and every file it
// names, verifying each file's SHA-256 checksum before writing it into
// dtfFolder.
func Restore(ctx context.Context, client *s3.Client, cfg Config, dtfFolder string, timestamp int64) (Manifest, error) {
	key := manifestKey(cfg.Prefix, timestamp)
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Manifest{}, fmt.Errorf("backup: fetch manifest %s: %w", key, err)
	}
	manifestBytes, err := io.ReadAll(out.Body)
	out.Body.Close()
	if err != nil {
		return Manifest{}, fmt.Errorf("backup: read manifest %s: %w", key, err)
	}

	var manifest Manifest
	if _, err := xdr.Unmarshal(bytes.NewReader(manifestBytes), &manifest); err != nil {
		return Manifest{}, fmt.Errorf("backup: decode manifest: %w", err)
	}

	if err := os.MkdirAll(dtfFolder, 0o755); err != nil {
		return Manifest{}, fmt.Errorf("backup: create %s: %w", dtfFolder, err)
	}

	for _, file := range manifest.Files {
		objKey := objectKey(cfg.Prefix, timestamp, file.Name)
		obj, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(cfg.Bucket),
			Key:    aws.String(objKey),
		})
		if err != nil {
			return Manifest{}, fmt.Errorf("backup: fetch %s: %w", objKey, err)
		}
		data, err := io.ReadAll(obj.Body)
		obj.Body.Close()
		if err != nil {
			return Manifest{}, fmt.Errorf("backup: read %s: %w", objKey, err)
		}

		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) != file.Checksum {
			return Manifest{}, fmt.Errorf("backup: checksum mismatch for %s", file.Name)
		}

		if err := os.WriteFile(filepath.Join(dtfFolder, file.Name), data, 0o644); err != nil {
			return Manifest{}, fmt.Errorf("backup: write %s: %w", file.Name, err)
		}
	}

	return manifest, nil
}

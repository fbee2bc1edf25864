// Package models holds the control plane's GORM record types. These are
// unrelated to the TCP tick-database wire protocol: they back the admin
// HTTP API's authentication and backup audit trail only.
package models

import "time"

// AdminUser is an operator account allowed to authenticate against the
// control-plane HTTP API.
type AdminUser struct {
	ID           uint   `gorm:"primarykey"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

// BackupRecord is an audit row written each time `tectonic backup` succeeds.
type BackupRecord struct {
	ID        uint   `gorm:"primarykey"`
	StoreName string `gorm:"index;not null"`
	S3Key     string `gorm:"not null"`
	Count     uint64 `gorm:"not null"`
	Checksum  string `gorm:"not null"`
	CreatedAt time.Time
}

// AllModels returns every model GORM should migrate.
func AllModels() []any {
	return []any{&AdminUser{}, &BackupRecord{}}
}

package store

import (
	"path/filepath"
	"testing"

	"github.com/erismart/tectonic/pkg/controlplane/models"
)

func TestOpenSQLiteAutoMigrates(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Config{Type: DatabaseTypeSQLite, DSN: filepath.Join(dir, "cp.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	user := models.AdminUser{Username: "admin", PasswordHash: "hash"}
	if err := s.DB.Create(&user).Error; err != nil {
		t.Fatalf("Create: %v", err)
	}

	var got models.AdminUser
	if err := s.DB.First(&got, "username = ?", "admin").Error; err != nil {
		t.Fatalf("First: %v", err)
	}
	if got.PasswordHash != "hash" {
		t.Errorf("PasswordHash = %q, want hash", got.PasswordHash)
	}
}

func TestOpenSQLiteDefaultsDSN(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	s, err := Open(Config{Type: DatabaseTypeSQLite})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.DB == nil {
		t.Fatalf("Open returned nil DB")
	}
}

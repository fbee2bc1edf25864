package store

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/erismart/tectonic/pkg/controlplane/models"
)

// EnvAdminInitialPassword, when set, fixes the password generated by
// EnsureAdminUser instead of a random one. Useful for scripted setup.
const EnvAdminInitialPassword = "TECTONIC_ADMIN_PASSWORD"

const adminUsername = "admin"

// EnsureAdminUser creates the reserved "admin" account if it does not
// already exist, returning the password it was created with. It returns
// an empty password (and no error) if the account already exists.
func (s *Store) EnsureAdminUser() (string, error) {
	var existing models.AdminUser
	err := s.DB.First(&existing, "username = ?", adminUsername).Error
	if err == nil {
		return "", nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("controlplane/store: lookup admin user: %w", err)
	}

	password, err := generateAdminPassword()
	if err != nil {
		return "", fmt.Errorf("controlplane/store: generate admin password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("controlplane/store: hash admin password: %w", err)
	}

	if err := s.DB.Create(&models.AdminUser{
		Username:     adminUsername,
		PasswordHash: string(hash),
	}).Error; err != nil {
		return "", fmt.Errorf("controlplane/store: create admin user: %w", err)
	}

	return password, nil
}

func generateAdminPassword() (string, error) {
	if pw := os.Getenv(EnvAdminInitialPassword); pw != "" {
		return pw, nil
	}
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/erismart/tectonic/pkg/controlplane/models"
	"github.com/erismart/tectonic/pkg/dtf"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func createAdmin(t *testing.T, db *gorm.DB, username, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %v", err)
	}
	if err := db.Create(&models.AdminUser{Username: username, PasswordHash: string(hash)}).Error; err != nil {
		t.Fatalf("Create admin: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthenticator(db, "secret", time.Hour)
	router := NewRouter(auth, db, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestLoginAndProtectedRoute(t *testing.T) {
	db := newTestDB(t)
	createAdmin(t, db, "admin", "hunter2")
	auth := NewAuthenticator(db, "secret", time.Hour)
	router := NewRouter(auth, db, t.TempDir())

	body, _ := json.Marshal(loginRequest{Username: "admin", Password: "hunter2"})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var loginResp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("unmarshal login response: %v", err)
	}
	if loginResp.Token == "" {
		t.Fatalf("login returned empty token")
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/backups", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("protected route status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}

func TestProtectedRouteRejectsMissingToken(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthenticator(db, "secret", time.Hour)
	router := NewRouter(auth, db, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/v1/stores", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestListStoresReflectsDataFolder(t *testing.T) {
	db := newTestDB(t)
	createAdmin(t, db, "admin", "hunter2")
	auth := NewAuthenticator(db, "secret", time.Hour)

	dir := t.TempDir()
	if err := dtf.Encode(filepath.Join(dir, "btc.dtf"), "btc", []dtf.Update{{Ts: 1, Price: 1, Size: 1}}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	router := NewRouter(auth, db, dir)

	token, err := auth.Login("admin", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/stores", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var stores []StoreInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &stores); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(stores) != 1 || stores[0].Name != "btc" || stores[0].Count != 1 {
		t.Errorf("stores = %+v, want one btc store with count 1", stores)
	}
	if stores[0].Size == 0 || stores[0].SizeHuman == "" {
		t.Errorf("stores[0] = %+v, want non-zero Size and SizeHuman", stores[0])
	}
}

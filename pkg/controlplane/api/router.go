package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"

	"github.com/erismart/tectonic/internal/bytesize"
	"github.com/erismart/tectonic/pkg/controlplane/models"
	"github.com/erismart/tectonic/pkg/dtf"
)

// StoreInfo is the JSON shape returned by GET /v1/stores, describing a
// store on disk independent of any live Connection State.
type StoreInfo struct {
	Name      string `json:"name"`
	Count     uint64 `json:"count"`
	Size      uint64 `json:"size_bytes"`
	SizeHuman string `json:"size"`
}

// NewRouter builds the control-plane HTTP router. dtfFolder is scanned the
// same way Bootstrap scans it, so /v1/stores reflects on-disk state rather
// than any single connection's view.
func NewRouter(auth *Authenticator, db *gorm.DB, dtfFolder string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", handleHealthz)
	r.Post("/v1/auth/login", handleLogin(auth))

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Get("/v1/stores", handleListStores(dtfFolder))
		r.Get("/v1/backups", handleListBackups(db))
	})

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func handleLogin(auth *Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		token, err := auth.Login(req.Username, req.Password)
		if err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{Token: token})
	}
}

func handleListStores(dtfFolder string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := os.ReadDir(dtfFolder)
		if err != nil {
			http.Error(w, "failed to scan data folder", http.StatusInternalServerError)
			return
		}

		stores := make([]StoreInfo, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".dtf") {
				continue
			}
			path := filepath.Join(dtfFolder, entry.Name())
			name := strings.TrimSuffix(entry.Name(), ".dtf")
			count, err := dtf.GetSize(path)
			if err != nil {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			size := bytesize.ByteSize(info.Size())
			stores = append(stores, StoreInfo{
				Name:      name,
				Count:     count,
				Size:      size.Uint64(),
				SizeHuman: size.String(),
			})
		}

		writeJSON(w, http.StatusOK, stores)
	}
}

func handleListBackups(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var records []models.BackupRecord
		if err := db.Order("created_at desc").Find(&records).Error; err != nil {
			http.Error(w, "failed to list backups", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

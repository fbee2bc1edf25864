// Package api implements the control plane's admin HTTP surface: a
// login endpoint issuing JWTs, and a small set of bearer-protected
// read-only routes over store metadata and backup history. It is
// entirely separate from, and never gates, the TCP tick-database wire
// protocol.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/erismart/tectonic/pkg/controlplane/models"
)

// ErrInvalidCredentials is returned by Login on a bad username/password.
var ErrInvalidCredentials = errors.New("controlplane/api: invalid credentials")

type claimsKey struct{}

// Authenticator issues and validates bearer tokens for admin users.
type Authenticator struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
}

// NewAuthenticator returns an Authenticator signing tokens with secret and
// expiring them after ttl.
func NewAuthenticator(db *gorm.DB, secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{db: db, secret: []byte(secret), ttl: ttl}
}

// Login verifies username/password against the admin_users table and
// returns a signed JWT on success.
func (a *Authenticator) Login(username, password string) (string, error) {
	var user models.AdminUser
	if err := a.db.First(&user, "username = ?", username).Error; err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Middleware rejects requests without a valid "Authorization: Bearer <jwt>"
// header, and stashes the subject claim in the request context otherwise.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SubjectFromContext returns the authenticated admin username, if any.
func SubjectFromContext(ctx context.Context) (string, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*jwt.RegisteredClaims)
	if !ok {
		return "", false
	}
	return claims.Subject, true
}

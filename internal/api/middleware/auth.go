package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/kiranshivaraju/contentdesk/internal/api/response"
)

const keyPrefixLen = 8

// Auth checks the dashboard key against a single bcrypt hash.
// With no hash configured every request is let through and identified by IP.
type Auth struct {
	hash []byte

	mu       sync.RWMutex
	verified string
}

// NewAuth creates a new Auth middleware from a bcrypt hash, which may be empty.
func NewAuth(keyHash string) *Auth {
	return &Auth{hash: []byte(keyHash)}
}

// Enabled reports whether a key is required.
func (a *Auth) Enabled() bool {
	return len(a.hash) > 0
}

// Authenticate validates the Bearer token and sets the caller identity in
// the request context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, WithCaller(r, "ip:"+clientIP(r)))
			return
		}

		rawKey := extractBearerToken(r)
		if rawKey == "" {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing or invalid Authorization header", nil)
			return
		}

		if len(rawKey) < keyPrefixLen {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Invalid API key format", nil)
			return
		}

		if !a.check(rawKey) {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Invalid API key", nil)
			return
		}

		next.ServeHTTP(w, WithCaller(r, "key:"+rawKey[:keyPrefixLen]))
	})
}

// check compares rawKey with the hash. The last accepted key is remembered
// so bcrypt runs once per key rather than once per request.
func (a *Auth) check(rawKey string) bool {
	a.mu.RLock()
	known := a.verified
	a.mu.RUnlock()
	if known != "" && subtle.ConstantTimeCompare([]byte(known), []byte(rawKey)) == 1 {
		return true
	}

	if bcrypt.CompareHashAndPassword(a.hash, []byte(rawKey)) != nil {
		return false
	}
	a.mu.Lock()
	a.verified = rawKey
	a.mu.Unlock()
	return true
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

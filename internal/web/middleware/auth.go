package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/trailpack/internal/config"
	"github.com/JonMunkholm/trailpack/internal/gearimport"
	"github.com/JonMunkholm/trailpack/internal/logging"
)

// APIKeyAuth checks the caller's key, sent as X-API-Key or as an
// "Authorization: Bearer" token, against the configured keys. With
// RequireAPIKey off every request passes; with it on and no keys configured
// every request is refused.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			key := presentedKey(r)
			switch {
			case key == "":
				reject(w, r, http.StatusUnauthorized, "AUTH_MISSING_KEY", "missing API key")
			case !matchesAny([]byte(key), keys):
				reject(w, r, http.StatusForbidden, "AUTH_INVALID_KEY", "invalid API key")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// presentedKey returns the key from X-API-Key, falling back to a bearer token.
func presentedKey(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get("X-API-Key")); k != "" {
		return k
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// isValidAPIKey reports whether key is one of validKeys.
func isValidAPIKey(key string, validKeys []string) bool {
	keys := make([][]byte, len(validKeys))
	for i, k := range validKeys {
		keys[i] = []byte(k)
	}
	return matchesAny([]byte(key), keys)
}

// matchesAny compares key against every candidate in constant time, so the
// duration does not reveal which key, if any, matched.
func matchesAny(key []byte, candidates [][]byte) bool {
	match := 0
	for _, c := range candidates {
		match |= subtle.ConstantTimeCompare(key, c)
	}
	return match == 1
}

// RequireUser reads the authenticated user id from header, set by the
// upstream auth proxy, and stores it in the request context. Requests
// without it are rejected.
func RequireUser(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(header))
			if userID == "" {
				reject(w, r, http.StatusUnauthorized, "AUTH_MISSING_USER", "missing user id", "header", header)
				return
			}

			ctx := gearimport.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type authError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// reject logs the refusal and writes a JSON error body.
func reject(w http.ResponseWriter, r *http.Request, status int, code, msg string, attrs ...any) {
	logging.FromContext(r.Context()).Warn("auth: "+msg, append([]any{
		"code", code,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", gearimport.IPAddressFromContext(r.Context()),
	}, attrs...)...)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(authError{Error: msg, Code: code})
}

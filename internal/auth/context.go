package auth

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
)

type contextKey string

const adminKey contextKey = "admin"

// AdminKeyHeader carries the admin key on admin requests.
const AdminKeyHeader = "X-Admin-Key"

// ContextWithAdmin returns a new context marked as authenticated for the admin surface.
func ContextWithAdmin(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, adminKey, true)
}

// IsAdmin reports whether the context passed the admin gate.
func IsAdmin(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	ok, _ := ctx.Value(adminKey).(bool)
	return ok
}

// RequireAdmin only lets requests through that present key, either in the
// X-Admin-Key header or the key query parameter. An empty key leaves the
// admin surface open.
func RequireAdmin(key string, next http.Handler) http.Handler {
	key = strings.TrimSpace(key)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key != "" {
			presented := strings.TrimSpace(r.Header.Get(AdminKeyHeader))
			if presented == "" {
				presented = strings.TrimSpace(r.URL.Query().Get("key"))
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				log.Printf("[auth] rejected admin request %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(ContextWithAdmin(r.Context())))
	})
}

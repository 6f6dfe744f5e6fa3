package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

type contextKey string

const (
	tokenInfoKey contextKey = "auth.tokenInfo"
	rawTokenKey  contextKey = "auth.rawToken"
)

// FromContext returns the token metadata the middleware attached to the
// request, if any.
func FromContext(ctx context.Context) (*TokenInfo, bool) {
	info, ok := ctx.Value(tokenInfoKey).(*TokenInfo)
	return info, ok
}

// TokenFromContext returns the raw bearer token the middleware
// validated, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(rawTokenKey).(string)
	return token, ok
}

// RequireToken returns middleware that rejects requests without a valid
// bearer token. When required is false the middleware passes everything
// through unchanged.
func RequireToken(store *Store, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !required {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			info, ok := store.Validate(token)
			if !ok {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), tokenInfoKey, info)
			ctx = context.WithValue(ctx, rawTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}

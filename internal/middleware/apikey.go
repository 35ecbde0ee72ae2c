package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"nestbridge/server/internal/observability"
)

// Authenticator verifies optional service API keys presented as Bearer
// tokens (HS256 JWTs) and copies the upstream credential side channel into
// the request context. When no signing secret is configured the server runs
// open and every caller is anonymous.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an Authenticator. An empty secret disables
// verification.
func NewAuthenticator(secret string) *Authenticator {
	a := &Authenticator{}
	if secret != "" {
		a.secret = []byte(secret)
	}
	return a
}

// Middleware resolves the caller identity and upstream credential for the
// request. A malformed or badly signed service key is rejected with 401;
// absence of any key is allowed.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if nestKey := r.Header.Get("X-Nest-API-Key"); nestKey != "" {
			ctx = context.WithValue(ctx, NestAPIKeyKey, nestKey)
		}

		caller := "anonymous"
		if token := bearerToken(r); token != "" && a.secret != nil {
			sub, err := a.verify(token)
			if err != nil {
				observability.LogSecurityEvent(GetRequestID(ctx), "", "invalid_service_key", map[string]any{
					"reason": err.Error(),
				})
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]any{
					"error":   "INVALID_SERVICE_KEY",
					"message": "The provided service key is invalid or expired",
				})
				return
			}
			caller = sub
		}

		ctx = context.WithValue(ctx, CallerIDKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	return parsed.Claims.GetSubject()
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

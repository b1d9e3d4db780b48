package middleware

import (
	"context"
	"net/http"
	"strings"

	"impostorparty/internal/model"
	"impostorparty/internal/service"
)

type contextKey string

const identityKey contextKey = "identity"

// AuthMiddleware validates player identity JWTs.
type AuthMiddleware struct {
	authSvc *service.AuthService
}

func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireIdentity validates the identity token from the Authorization
// header (or token query param, for links that cannot set headers).
func (m *AuthMiddleware) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			http.Error(w, `{"error":"missing authorization"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.authSvc.ValidateIdentityToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, m.authSvc.Identity(claims))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity extracts the verified player identity from the context.
func GetIdentity(ctx context.Context) (model.PlayerIdentity, bool) {
	v, ok := ctx.Value(identityKey).(model.PlayerIdentity)
	return v, ok
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

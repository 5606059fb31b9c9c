package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/hyperjump/mitsumori/internal/models"
)

// Headers set by the fronting auth layer.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

const (
	roleSales = models.RoleSales
	roleAdmin = models.RoleAdmin
)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller identity, zero when the request was anonymous.
func IdentityFrom(ctx context.Context) models.Identity {
	id, _ := ctx.Value(identityKey{}).(models.Identity)
	return id
}

func identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := models.Identity{
			UserID: strings.TrimSpace(r.Header.Get(HeaderUserID)),
			Role:   strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole))),
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// requireRole rejects anonymous callers with 401 and, when roles are given, callers
// holding none of them with 403.
func requireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFrom(r.Context())
			if id.UserID == "" {
				respondError(w, http.StatusUnauthorized, "missing "+HeaderUserID+" header")
				return
			}
			if len(roles) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, http.StatusForbidden, "role "+strings.Join(roles, " or ")+" required")
		})
	}
}

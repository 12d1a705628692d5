package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/fjod/go_cart/shop-service/internal/auth"
	"github.com/fjod/go_cart/shop-service/internal/domain"
)

type principalKey struct{}

// TokenVerifier turns a bearer token into the acting principal.
type TokenVerifier interface {
	Verify(raw string) (domain.Principal, error)
}

func withPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok && p.UserID != ""
}

// Authenticate attaches the principal of a valid bearer token. Requests
// without a token pass through anonymously, an invalid token is rejected.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				respondError(w, http.StatusUnauthorized, "unauthenticated", "malformed authorization header")
				return
			}

			principal, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				respondError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
		})
	}
}

// RequirePermission answers 401 without a principal and 403 when its role
// lacks any of perms.
func RequirePermission(table auth.RoleTable, perms ...auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := principalFromContext(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
				return
			}
			if !table.Allows(principal.Role, perms...) {
				respondError(w, http.StatusForbidden, "permission_denied", "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// actor returns the request principal. Routes behind RequirePermission
// always have one.
func actor(r *http.Request) domain.Principal {
	p, _ := principalFromContext(r.Context())
	return p
}

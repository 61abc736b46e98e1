package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/conectados420/storefront/internal/api/problem"
	"github.com/conectados420/storefront/internal/audit"
	"github.com/conectados420/storefront/internal/auth"
)

// AdminAuthCookieName is the HttpOnly cookie the browser admin carries.
const AdminAuthCookieName = "storefront_admin_token"

type contextKeyAuth string

const (
	adminClaimsKey contextKeyAuth = "adminClaims"
	authViaCookie  contextKeyAuth = "authViaCookie"
)

func contextWithAdminClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, adminClaimsKey, claims)
}

func AdminClaims(r *http.Request) *auth.Claims {
	if r == nil {
		return nil
	}
	if claims, ok := r.Context().Value(adminClaimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// AuthenticatedByCookie reports whether AdminAuth accepted the request's
// session cookie rather than a bearer token.
func AuthenticatedByCookie(r *http.Request) bool {
	v, _ := r.Context().Value(authViaCookie).(bool)
	return v
}

// AdminAuth accepts a bearer token or the admin session cookie. The bearer
// header wins when both are present.
func AdminAuth(manager *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, env)
				return
			}

			token, viaCookie := "", false
			if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
				t, err := auth.TokenFromHeader(header)
				if err != nil {
					problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid authorization format", err, env)
					return
				}
				token = t
			} else if cookie, err := r.Cookie(AdminAuthCookieName); err == nil {
				token, viaCookie = strings.TrimSpace(cookie.Value), true
			}
			if token == "" {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Missing credentials", problem.ErrUnauthorized, env)
				return
			}

			claims, err := manager.Validate(token)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid token", err, env)
				return
			}
			if !auth.IsAdmin(claims.Role) {
				problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Insufficient permissions", problem.ErrForbidden, env)
				return
			}

			ctx := contextWithAdminClaims(r.Context(), claims)
			ctx = context.WithValue(ctx, authViaCookie, viaCookie)
			user := claims.Email
			if user == "" {
				user = claims.Subject
			}
			ctx = audit.WithAdminUser(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

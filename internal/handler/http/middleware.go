package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/marviero/backoffice/internal/auth"
	"github.com/marviero/backoffice/internal/domain"
)

type contextKey struct{ name string }

var identityKey = &contextKey{"identity"}

// IdentityFromContext returns the identity the auth middleware attached.
func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*domain.Identity)
	return identity, ok
}

// writeAuthError emits the auth failure contract: a bare {"message": ...}
// body. Clients match on these strings, so they are fixed.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// AuthMiddleware authenticates requests and gates routes by role.
type AuthMiddleware struct {
	issuer   *auth.TokenIssuer
	resolver *auth.Resolver
	logger   *slog.Logger
}

// NewAuthMiddleware creates the auth middleware.
func NewAuthMiddleware(issuer *auth.TokenIssuer, resolver *auth.Resolver, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{issuer: issuer, resolver: resolver, logger: logger}
}

// Authenticate runs the guard chain: extract, verify (purpose access),
// resolve. Every failure is a 401 with its contract message; anything
// unexpected collapses to "Authentication failed" rather than leaking.
// Only the auth steps fail closed this way; a panic in the route handler
// behind this middleware propagates to the recovery middleware as a 500.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := m.resolveRequest(w, r)
		if !ok {
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveRequest authenticates the request, writing the 401 response itself
// on failure. A panic anywhere in the guard chain is caught here and fails
// closed as "Authentication failed".
func (m *AuthMiddleware) resolveRequest(w http.ResponseWriter, r *http.Request) (identity *domain.Identity, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.ErrorContext(r.Context(), "panic during authentication",
				slog.Any("panic", rec),
				slog.String("path", r.URL.Path),
			)
			writeAuthError(w, http.StatusUnauthorized, "Authentication failed")
			identity, ok = nil, false
		}
	}()

	token, found := auth.FromRequest(r)
	if !found {
		writeAuthError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}

	claims, err := m.issuer.Verify(token)
	if err != nil {
		writeAuthError(w, http.StatusUnauthorized, "Invalid token")
		return nil, false
	}

	identity, err = m.resolver.Resolve(r.Context(), claims, auth.PurposeAccess)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrBadPurpose):
			writeAuthError(w, http.StatusUnauthorized, "Invalid token type")
		case errors.Is(err, auth.ErrUserNotFound):
			writeAuthError(w, http.StatusUnauthorized, "User not found")
		default:
			m.logger.ErrorContext(r.Context(), "identity resolution failed",
				slog.String("error", err.Error()),
			)
			writeAuthError(w, http.StatusUnauthorized, "Authentication failed")
		}
		return nil, false
	}

	return identity, true
}

// RequireRole gates a route to PRIVATE identities holding one of the given
// roles. Must sit behind Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || identity.Type != domain.UserTypePrivate {
				writeAuthError(w, http.StatusForbidden, "Forbidden")
				return
			}
			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeAuthError(w, http.StatusForbidden, "Forbidden")
		})
	}
}

// RequireStaff allows CLIENT and ADMIN identities.
func (m *AuthMiddleware) RequireStaff(next http.Handler) http.Handler {
	return m.RequireRole(domain.RoleClient, domain.RoleAdmin)(next)
}

// RequireAdmin allows only ADMIN identities.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole(domain.RoleAdmin)(next)
}

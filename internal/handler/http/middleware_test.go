package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marviero/backoffice/internal/auth"
	"github.com/marviero/backoffice/internal/domain"
	apperrors "github.com/marviero/backoffice/pkg/errors"
	pkgmiddleware "github.com/marviero/backoffice/pkg/middleware"
)

// --- Mock Lookups ---

type mockUserLookup struct {
	mock.Mock
}

func (m *mockUserLookup) GetByUpdatedAt(ctx context.Context, updatedAt time.Time) (*domain.User, error) {
	args := m.Called(ctx, updatedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type mockPublicLookup struct {
	mock.Mock
}

func (m *mockPublicLookup) GetByUpdatedAt(ctx context.Context, updatedAt time.Time) (*domain.PublicUser, error) {
	args := m.Called(ctx, updatedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PublicUser), args.Error(1)
}

// panicLookup simulates an unexpected failure inside the guard chain.
type panicLookup struct{}

func (panicLookup) GetByUpdatedAt(context.Context, time.Time) (*domain.User, error) {
	panic("lookup exploded")
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer("test-secret", 15*time.Minute, 168*time.Hour, time.Hour)
}

func protectedEndpoint(t *testing.T, users auth.UserLookup, publics auth.PublicUserLookup) (http.Handler, *auth.TokenIssuer) {
	t.Helper()
	issuer := newTestIssuer()
	am := NewAuthMiddleware(issuer, auth.NewResolver(users, publics), newTestLogger())

	handler := am.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"user_id": identity.ID})
	}))
	return handler, issuer
}

func authMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["message"]
}

// --- Authenticate Tests ---

func TestAuthenticate_NoCredential(t *testing.T) {
	handler, _ := protectedEndpoint(t, new(mockUserLookup), new(mockPublicLookup))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", authMessage(t, rec))
}

func TestAuthenticate_GarbageToken(t *testing.T) {
	handler, _ := protectedEndpoint(t, new(mockUserLookup), new(mockPublicLookup))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", authMessage(t, rec))
}

func TestAuthenticate_WrongPurpose(t *testing.T) {
	users := new(mockUserLookup)
	handler, issuer := protectedEndpoint(t, users, new(mockPublicLookup))

	refresh, err := issuer.SignRefreshToken(domain.Now(), domain.UserTypePrivate)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieToken, Value: refresh})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token type", authMessage(t, rec))
	users.AssertNotCalled(t, "GetByUpdatedAt", mock.Anything, mock.Anything)
}

func TestAuthenticate_UserNotFound(t *testing.T) {
	users := new(mockUserLookup)
	handler, issuer := protectedEndpoint(t, users, new(mockPublicLookup))

	updatedAt := domain.Now()
	users.On("GetByUpdatedAt", mock.Anything, updatedAt).Return(nil, apperrors.ErrNotFound)

	access, err := issuer.SignAccessToken(updatedAt, domain.UserTypePrivate)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieToken, Value: access})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User not found", authMessage(t, rec))
}

func TestAuthenticate_PanicCollapsesToAuthenticationFailed(t *testing.T) {
	handler, issuer := protectedEndpoint(t, panicLookup{}, new(mockPublicLookup))

	access, err := issuer.SignAccessToken(domain.Now(), domain.UserTypePrivate)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieToken, Value: access})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication failed", authMessage(t, rec))
}

func TestAuthenticate_HandlerPanicIsNotMaskedAs401(t *testing.T) {
	users := new(mockUserLookup)
	issuer := newTestIssuer()
	am := NewAuthMiddleware(issuer, auth.NewResolver(users, new(mockPublicLookup)), newTestLogger())

	user := &domain.User{
		ID:        "user-1",
		Email:     "a@b.c",
		Role:      domain.RoleAdmin,
		IsActive:  true,
		UpdatedAt: domain.Now(),
	}
	users.On("GetByUpdatedAt", mock.Anything, user.UpdatedAt).Return(user, nil)

	// The route handler blows up after authentication succeeded. The panic
	// must reach the outer recovery middleware as a 500, not be absorbed by
	// the auth guard as a 401.
	handler := pkgmiddleware.Recovery(newTestLogger())(
		am.Authenticate(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("handler exploded")
		})),
	)

	access, err := issuer.SignAccessToken(user.UpdatedAt, domain.UserTypePrivate)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieToken, Value: access})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Authentication failed")
}

func TestAuthenticate_CookieAndBearerCarriers(t *testing.T) {
	users := new(mockUserLookup)
	handler, issuer := protectedEndpoint(t, users, new(mockPublicLookup))

	user := &domain.User{
		ID:        "user-1",
		Email:     "a@b.c",
		Role:      domain.RoleAdmin,
		IsActive:  true,
		UpdatedAt: domain.Now(),
	}
	users.On("GetByUpdatedAt", mock.Anything, user.UpdatedAt).Return(user, nil)

	access, err := issuer.SignAccessToken(user.UpdatedAt, domain.UserTypePrivate)
	require.NoError(t, err)

	// cookie carrier
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieToken, Value: access})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// bearer carrier
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticate_PublicTokenResolvesWithoutStaffTable(t *testing.T) {
	users := new(mockUserLookup)
	publics := new(mockPublicLookup)
	handler, issuer := protectedEndpoint(t, users, publics)

	pub := &domain.PublicUser{
		ID:        "pub-1",
		Email:     "shopper@example.com",
		IsActive:  true,
		UpdatedAt: domain.Now(),
	}
	publics.On("GetByUpdatedAt", mock.Anything, pub.UpdatedAt).Return(pub, nil)

	access, err := issuer.SignAccessToken(pub.UpdatedAt, domain.UserTypePublic)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	users.AssertNotCalled(t, "GetByUpdatedAt", mock.Anything, mock.Anything)
}

// --- RequireRole Tests ---

func requireRoleHandler(t *testing.T, identity *domain.Identity, roles ...domain.Role) *httptest.ResponseRecorder {
	t.Helper()
	am := NewAuthMiddleware(newTestIssuer(), auth.NewResolver(new(mockUserLookup), new(mockPublicLookup)), newTestLogger())

	handler := am.RequireRole(roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if identity != nil {
		req = req.WithContext(context.WithValue(req.Context(), identityKey, identity))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireRole(t *testing.T) {
	clientID := "client-1"
	admin := &domain.Identity{ID: "u1", Role: domain.RoleAdmin, Type: domain.UserTypePrivate}
	staff := &domain.Identity{ID: "u2", Role: domain.RoleClient, Type: domain.UserTypePrivate, ClientID: &clientID}
	public := &domain.Identity{ID: "u3", Role: domain.RolePublicUser, Type: domain.UserTypePublic}

	tests := []struct {
		name     string
		identity *domain.Identity
		roles    []domain.Role
		want     int
	}{
		{"admin passes admin gate", admin, []domain.Role{domain.RoleAdmin}, http.StatusOK},
		{"staff fails admin gate", staff, []domain.Role{domain.RoleAdmin}, http.StatusForbidden},
		{"staff passes staff gate", staff, []domain.Role{domain.RoleClient, domain.RoleAdmin}, http.StatusOK},
		{"public fails staff gate", public, []domain.Role{domain.RoleClient, domain.RoleAdmin}, http.StatusForbidden},
		{"no identity", nil, []domain.Role{domain.RoleAdmin}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := requireRoleHandler(t, tt.identity, tt.roles...)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, "Forbidden", authMessage(t, rec))
			}
		})
	}
}

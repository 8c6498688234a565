package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marviero/backoffice/internal/service"
)

func bundleFixture() *service.TokenBundle {
	return &service.TokenBundle{
		AccessToken:  "access-jwt",
		RefreshToken: "refresh-jwt",
		SocketToken:  "socket-jwt",
	}
}

func cookieByName(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestCookiePolicy_SetBundle(t *testing.T) {
	rec := httptest.NewRecorder()
	CookiePolicy{Production: false}.SetBundle(rec, bundleFixture())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 3)

	access := cookieByName(t, cookies, "token")
	assert.Equal(t, "access-jwt", access.Value)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, 24*60*60, access.MaxAge)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.False(t, access.Secure)

	refresh := cookieByName(t, cookies, "refresh_token")
	assert.Equal(t, "/api/v1/auth/refresh", refresh.Path)
	assert.Equal(t, 30*24*60*60, refresh.MaxAge)
	assert.True(t, refresh.HttpOnly)

	socket := cookieByName(t, cookies, "socket_token")
	assert.Equal(t, "/", socket.Path)
	assert.Equal(t, 7*24*60*60, socket.MaxAge)
}

func TestCookiePolicy_ProductionCrossSite(t *testing.T) {
	rec := httptest.NewRecorder()
	CookiePolicy{Production: true}.SetBundle(rec, bundleFixture())

	for _, c := range rec.Result().Cookies() {
		assert.True(t, c.Secure, "cookie %s must be Secure in production", c.Name)
		assert.Equal(t, http.SameSiteNoneMode, c.SameSite, "cookie %s", c.Name)
		assert.True(t, c.HttpOnly)
	}
}

func TestCookiePolicy_RefreshLeavesRefreshCookieAlone(t *testing.T) {
	rec := httptest.NewRecorder()
	CookiePolicy{}.SetAccessAndSocket(rec, bundleFixture())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.NotEqual(t, "refresh_token", c.Name)
	}
}

func TestCookiePolicy_Clear(t *testing.T) {
	rec := httptest.NewRecorder()
	CookiePolicy{}.Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 3)
	for _, c := range cookies {
		assert.Empty(t, c.Value)
		assert.Equal(t, -1, c.MaxAge)
	}
	assert.Equal(t, "/api/v1/auth/refresh", cookieByName(t, cookies, "refresh_token").Path)
}

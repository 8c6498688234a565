package http

import (
	"net/http"
	"time"

	"github.com/marviero/backoffice/internal/auth"
	"github.com/marviero/backoffice/internal/service"
)

// Cookie lifetimes. Independent from token expiry: an expired token inside
// a live cookie simply fails verification.
const (
	accessCookieAge  = 24 * time.Hour
	refreshCookieAge = 30 * 24 * time.Hour
	socketCookieAge  = 7 * 24 * time.Hour
)

// refreshCookiePath confines the refresh token to the one endpoint that
// consumes it.
const refreshCookiePath = "/api/v1/auth/refresh"

// CookiePolicy decides the cross-site attributes of auth cookies. In
// production the frontend is served from another origin, so cookies need
// SameSite=None which in turn requires Secure.
type CookiePolicy struct {
	Production bool
}

func (p CookiePolicy) apply(c *http.Cookie) *http.Cookie {
	c.HttpOnly = true
	if p.Production {
		c.SameSite = http.SameSiteNoneMode
		c.Secure = true
	} else {
		c.SameSite = http.SameSiteLaxMode
	}
	return c
}

// SetBundle writes the three auth cookies from a token bundle.
func (p CookiePolicy) SetBundle(w http.ResponseWriter, bundle *service.TokenBundle) {
	http.SetCookie(w, p.apply(&http.Cookie{
		Name:   auth.CookieToken,
		Value:  bundle.AccessToken,
		Path:   "/",
		MaxAge: int(accessCookieAge.Seconds()),
	}))
	http.SetCookie(w, p.apply(&http.Cookie{
		Name:   auth.CookieRefreshToken,
		Value:  bundle.RefreshToken,
		Path:   refreshCookiePath,
		MaxAge: int(refreshCookieAge.Seconds()),
	}))
	http.SetCookie(w, p.apply(&http.Cookie{
		Name:   auth.CookieSocketToken,
		Value:  bundle.SocketToken,
		Path:   "/",
		MaxAge: int(socketCookieAge.Seconds()),
	}))
}

// SetAccessAndSocket rewrites the short-lived cookies after a refresh,
// leaving the refresh cookie untouched.
func (p CookiePolicy) SetAccessAndSocket(w http.ResponseWriter, bundle *service.TokenBundle) {
	http.SetCookie(w, p.apply(&http.Cookie{
		Name:   auth.CookieToken,
		Value:  bundle.AccessToken,
		Path:   "/",
		MaxAge: int(accessCookieAge.Seconds()),
	}))
	http.SetCookie(w, p.apply(&http.Cookie{
		Name:   auth.CookieSocketToken,
		Value:  bundle.SocketToken,
		Path:   "/",
		MaxAge: int(socketCookieAge.Seconds()),
	}))
}

// Clear expires all three cookies.
func (p CookiePolicy) Clear(w http.ResponseWriter) {
	http.SetCookie(w, p.apply(&http.Cookie{Name: auth.CookieToken, Value: "", Path: "/", MaxAge: -1}))
	http.SetCookie(w, p.apply(&http.Cookie{Name: auth.CookieRefreshToken, Value: "", Path: refreshCookiePath, MaxAge: -1}))
	http.SetCookie(w, p.apply(&http.Cookie{Name: auth.CookieSocketToken, Value: "", Path: "/", MaxAge: -1}))
}

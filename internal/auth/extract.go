package auth

import (
	"net/http"
	"strings"
)

// Cookie names shared with the HTTP handlers that set them.
const (
	CookieToken        = "token"
	CookieRefreshToken = "refresh_token"
	CookieSocketToken  = "socket_token"
)

// FromRequest extracts a credential from an HTTP request: the token cookie
// first, then the Authorization Bearer header. Returns ("", false) when
// neither carrier is present; extraction itself never fails.
func FromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(CookieToken); err == nil && c.Value != "" {
		return c.Value, true
	}

	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok && after != "" {
		return after, true
	}

	return "", false
}

// Handshake carries the credential material of one websocket connection
// attempt, assembled by the realtime layer from the upgrade request and the
// client's hello frame.
type Handshake struct {
	// AuthToken is the token field of the hello frame, if any.
	AuthToken string
	// QueryToken is the token query parameter of the upgrade URL.
	QueryToken string
	// Request is the original upgrade request, used for cookie fallback.
	Request *http.Request
	// DefaultNamespace is true on the default endpoint; only there is the
	// query carrier honored.
	DefaultNamespace bool
}

// FromHandshake extracts a credential from a websocket handshake in carrier
// precedence order: hello frame auth field, then the token query parameter
// (default namespace only), then the socket_token cookie of the upgrade
// request. Returns ("", false) when no carrier is present.
func FromHandshake(h Handshake) (string, bool) {
	if h.AuthToken != "" {
		return h.AuthToken, true
	}

	if h.DefaultNamespace && h.QueryToken != "" {
		return h.QueryToken, true
	}

	if h.Request != nil {
		if c, err := h.Request.Cookie(CookieSocketToken); err == nil && c.Value != "" {
			return c.Value, true
		}
	}

	return "", false
}

package middleware

import (
	"net/http"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	AllowedOrigins []string
	Environment    string
}

// CORS returns a middleware that sets Cross-Origin Resource Sharing headers.
// In development mode (or when AllowedOrigins contains "*"), a wildcard
// origin is used. Otherwise only the explicitly listed origins are allowed,
// with Access-Control-Allow-Credentials set so the browser sends the auth
// cookies along.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	allow := newOriginPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allow(w, r.Header.Get("Origin"))

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Correlation-ID")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// newOriginPolicy compiles the configured origins into a function that stamps
// the origin headers on a response. Credentialed responses are only sent for
// an exact origin match, never for the wildcard.
func newOriginPolicy(cfg CORSConfig) func(w http.ResponseWriter, origin string) {
	wildcard := cfg.Environment == "development"
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			wildcard = true
			continue
		}
		allowed[o] = struct{}{}
	}

	return func(w http.ResponseWriter, origin string) {
		if wildcard {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			return
		}
		if origin == "" {
			return
		}
		if _, ok := allowed[origin]; !ok {
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Vary", "Origin")
	}
}

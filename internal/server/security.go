package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/agbru/heatsolve/internal/heat"
)

// SecurityConfig holds the HTTP hardening settings of the server.
type SecurityConfig struct {
	// EnableCORS turns on Access-Control-* headers for allowed origins.
	EnableCORS bool
	// AllowedOrigins lists the origins accepted for CORS and WebSocket
	// upgrades. "*" accepts any origin.
	AllowedOrigins []string
	// AllowedMethods is advertised in Access-Control-Allow-Methods.
	AllowedMethods []string
	// MaxSimulations caps the batch size accepted over the WebSocket. It can
	// only tighten heat.MaxBatchSize.
	MaxSimulations int
}

// DefaultSecurityConfig returns a permissive configuration suitable for a
// local dashboard.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		MaxSimulations: heat.MaxBatchSize,
	}
}

// SecurityMiddleware adds security headers to every response and answers
// CORS preflight requests without calling next.
func SecurityMiddleware(config SecurityConfig, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if config.EnableCORS {
			if allowed, ok := corsOrigin(config.AllowedOrigins, r.Header.Get("Origin")); ok {
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				h.Set("Access-Control-Allow-Headers", "Content-Type")
				h.Set("Access-Control-Max-Age", "86400")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

// corsOrigin returns the value for Access-Control-Allow-Origin.
func corsOrigin(allowed []string, origin string) (string, bool) {
	for _, o := range allowed {
		if o == "*" {
			return "*", true
		}
		if origin != "" && o == origin {
			return origin, true
		}
	}
	return "", false
}

// originChecker returns the CheckOrigin function of the WebSocket upgrader.
// Requests without an Origin header (non-browser clients) and same-host
// requests are always accepted.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		if _, ok := corsOrigin(allowed, origin); ok {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

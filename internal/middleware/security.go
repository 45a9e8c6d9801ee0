// internal/middleware/security.go
//
// Security-header middleware for JSON endpoints.
//
// Injects conservative headers on every response:
//
//   • Strict-Transport-Security  –  forces HTTPS (2 years)
//   • Content-Security-Policy   –  nothing may load; responses are data
//   • X-Frame-Options           –  click-jacking defence
//   • X-Content-Type-Options    –  MIME-sniffing defence
//   • Referrer-Policy           –  no Referer at all
//   • Cache-Control             –  API responses are never cached
//
// Notes
// -----
// • Headers are set *before* next.ServeHTTP, since the header map is frozen
//   once a handler writes.  That ordering is what lets a handler override
//   any of them.
// • A header already present when Security runs (set by upstream
//   middleware) is left alone.

package middleware

import "net/http"

// securityHeaders are applied in order by Security.
var securityHeaders = [][2]string{
	{"Strict-Transport-Security", "max-age=63072000; includeSubDomains"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "no-referrer"},
	{"Cache-Control", "no-store"},
}

// Security sets security headers for every response.
func Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			if h.Get(kv[0]) == "" {
				h.Set(kv[0], kv[1])
			}
		}
		next.ServeHTTP(w, r)
	})
}

// internal/requestinfo/middleware.go
//
// Access-log middleware.
//
/*
Context
--------
AccessLog sits first in the chain.  For every request it:

  1. Collects *Info (request id, client IP, UA, optional country).
  2. Echoes the request id in the X-Request-ID response header.
  3. Stores *Info in the request context for downstream handlers.
  4. After the handler returns, writes one INFO line with method, path,
     status, bytes, and duration plus the collected attributes.

Notes
-----
  • Status 0 (handler wrote nothing) is logged as 200, matching net/http.
  • The logger is injected; pass zap.S() to use the process default.
*/
package requestinfo

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

/*──────────────────────────── middleware ───────────────────────────────────*/

// AccessLog returns the middleware.  geo may be nil; a nil log discards.
func AccessLog(log *zap.SugaredLogger, geo *Geo) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := collect(r, geo)

			w.Header().Set(HeaderRequestID, info.RequestID)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			ctx := context.WithValue(r.Context(), ctxKey{}, info)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Infow("request",
				"id", info.RequestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"ip", info.IP.String(),
				"country", info.Country,
				"browser", info.UA.Browser,
				"os", info.UA.OS,
				"device", info.UA.Device,
				"bot", info.UA.IsBot,
			)
		})
	}
}

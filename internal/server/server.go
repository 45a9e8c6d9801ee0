// internal/server/server.go
//
// HTTP server helper with timeouts and graceful shutdown.
//
// Timeouts come from the `http` config section:
//
//   • ReadTimeout   – abort slow-loris headers (default 10 s)
//   • WriteTimeout  – cap total response time (default 15 s)
//   • IdleTimeout   – close keep-alives on idle clients (default 60 s)
//
// Run serves until its context is cancelled, then drains in-flight
// requests for up to ShutdownGrace.

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/nutshell/internal/config"
)

// ShutdownGrace bounds how long Run waits for in-flight requests.
const ShutdownGrace = 10 * time.Second

// New constructs an *http.Server from the HTTP config section.
func New(cfg config.HTTP, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Run calls ListenAndServe and shuts srv down when ctx ends.  It returns
// nil after a clean shutdown.
func Run(ctx context.Context, srv *http.Server, log *zap.SugaredLogger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infow("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down", "grace", ShutdownGrace)
		sctx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}

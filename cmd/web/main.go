// cmd/web/main.go
//
// nutshell – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Load and validate conf/global.yaml with env overrides.
//
//  3. Start daily rotating logger (tees to console when running in a TTY).
//
//  4. Open the database when any resource is SQL-backed.  A `vault:`
//     password is resolved first.
//
//  5. Build the chi router: recoverer → access log → HTTPS redirect →
//     security headers, then /metrics, /healthz, and one REST surface per
//     configured resource.
//
//  6. Serve until SIGINT/SIGTERM, then drain in-flight requests.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/nutshell/internal/config"
	"github.com/yanizio/nutshell/internal/database"
	"github.com/yanizio/nutshell/internal/logger"
	"github.com/yanizio/nutshell/internal/middleware"
	"github.com/yanizio/nutshell/internal/requestinfo"
	"github.com/yanizio/nutshell/internal/resource"
	"github.com/yanizio/nutshell/internal/server"
	"github.com/yanizio/nutshell/internal/vault"
)

const serverEnvPath = "/usr/local/etc/nutshell/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Console logger until config tells us the level.
	zap.ReplaceGlobals(logger.Console().Desugar())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logOut, err := logger.New(cfg.Paths.Root, cfg.Log.Level, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	if err := run(ctx, cfg, logOut); err != nil {
		logOut.Fatalw("nutshell stopped", "err", err)
	}
	logOut.Infow("nutshell stopped")
}

// run wires storage, routes, and the server, and blocks until ctx ends.
func run(ctx context.Context, cfg *config.Config, logOut *zap.SugaredLogger) error {
	//
	// ── 1.  Database (only when a resource needs it) ───────────────────
	//
	var db *sqlx.DB
	if cfg.NeedsDatabase() {
		var err error
		if db, err = openDatabase(ctx, cfg.Database, logOut); err != nil {
			return err
		}
		defer db.Close()
	}

	//
	// ── 2.  Optional GeoIP database for the access log ─────────────────
	//
	var geo *requestinfo.Geo
	if cfg.HTTP.GeoDB != "" {
		g, err := requestinfo.OpenGeo(cfg.HTTP.GeoDB)
		if err != nil {
			logOut.Warnw("geo db unavailable", "file", cfg.HTTP.GeoDB, "err", err)
		} else {
			geo = g
			defer geo.Close()
		}
	}

	//
	// ── 3.  Router ─────────────────────────────────────────────────────
	//
	r := newRouter(cfg.HTTP, logOut, geo, db)

	eng := resource.NewEngine(r, logOut)
	if err := registerAll(eng, cfg.Resources, db); err != nil {
		return err
	}

	//
	// ── 4.  Serve until signalled ──────────────────────────────────────
	//
	return server.Run(ctx, server.New(cfg.HTTP, r), logOut)
}

// newRouter builds the chi mux with the global middleware chain and the
// operational endpoints.  db may be nil.
func newRouter(h config.HTTP, logOut *zap.SugaredLogger, geo *requestinfo.Geo, db *sqlx.DB) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestinfo.AccessLog(logOut, geo))
	r.Use(middleware.ForceHTTPS(h.ForceHTTPS))
	r.Use(middleware.Security)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if db != nil {
			if err := db.PingContext(req.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// openDatabase resolves the password, fills the DSN template, and opens
// the pool.
func openDatabase(ctx context.Context, c config.Database, logOut *zap.SugaredLogger) (*sqlx.DB, error) {
	password := c.Password
	if vault.IsRef(password) {
		cli, err := vault.New()
		if err != nil {
			return nil, err
		}
		if password, err = cli.Resolve(ctx, password); err != nil {
			return nil, err
		}
	}

	logOut.Infow("connecting to database", "driver", c.Driver)
	db, err := database.Open(ctx, c.Driver, database.DSN(c.DSN, password))
	if err != nil {
		return nil, err
	}
	logOut.Infow("database online", "driver", c.Driver)
	return db, nil
}

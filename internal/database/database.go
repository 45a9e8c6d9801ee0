// Package database centralises sqlx connection helpers.  Two drivers are
// linked in: go-sql-driver/mysql (the default, also fine for MariaDB) and
// mattn/go-sqlite3 for single-file deployments and local development.
//
// Public entry points:
//
//	Open(ctx, driver, dsn)                    – conservative pool sizes.
//	OpenWithOptions(ctx, driver, dsn, opts)   – fine-grained control.
//	DSN(template, password)                   – fills a %s password verb.
//
// Both Open helpers Ping the database before returning, retrying per
// Options, so callers can fail fast during bootstrap.  Callers should
// Close() the returned *sqlx.DB when no longer needed.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDriver is used when the configuration leaves driver empty.
const DefaultDriver = "mysql"

// Options tunes the pool and the startup ping.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retries         int           // extra ping attempts after the first
	RetryBackoff    time.Duration // doubled after each failed attempt
}

// DefaultOptions are used by Open: 15 max open, 5 idle, a 30-minute
// connection lifetime, and two ping retries.
var DefaultOptions = Options{
	MaxOpenConns:    15,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
	Retries:         2,
	RetryBackoff:    500 * time.Millisecond,
}

// Open returns a pooled *sqlx.DB using DefaultOptions.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, driver, dsn, DefaultOptions)
}

// OpenWithOptions opens and pings the pool, retrying the ping with
// exponential backoff.
func OpenWithOptions(ctx context.Context, driver, dsn string, o Options) (*sqlx.DB, error) {
	if driver == "" {
		driver = DefaultDriver
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", driver, err)
	}

	db.SetMaxOpenConns(o.MaxOpenConns)
	db.SetMaxIdleConns(o.MaxIdleConns)
	db.SetConnMaxLifetime(o.ConnMaxLifetime)

	if err := ping(ctx, db, o); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping %s: %w", driver, err)
	}
	return db, nil
}

func ping(ctx context.Context, db *sqlx.DB, o Options) error {
	wait := o.RetryBackoff
	var err error
	for attempt := 0; attempt <= o.Retries; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if attempt == o.Retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return err
}

// DSN substitutes password into the first %s of template.  Templates
// without a verb are returned unchanged.
func DSN(template, password string) string {
	if !strings.Contains(template, "%s") {
		return template
	}
	return strings.Replace(template, "%s", password, 1)
}

// Package database centralises sqlx connection helpers for the platform
// database the rewriter reads from.  Two drivers are registered:
// go-sql-driver/mysql (MySQL and MariaDB installs) and lib/pq (PostgreSQL
// installs).
//
// Public entry points:
//
//	Open(driver, dsn)                     – conservative pool sizes.
//	OpenWithOptions(ctx, driver, dsn, o)  – fine-grained control.
//
// Both helpers Ping the database before returning so callers can fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Options tunes the pool.  Zero fields fall back to DefaultOptions.
type Options struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	PingTimeout time.Duration
}

// DefaultOptions mirrors a small process-wide pool: lookups are single-row
// reads by indexed key.
var DefaultOptions = Options{
	MaxOpen:     15,
	MaxIdle:     5,
	MaxLifetime: 30 * time.Minute,
	PingTimeout: 5 * time.Second,
}

// Open returns a *sqlx.DB with DefaultOptions.
func Open(driver, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(context.Background(), driver, dsn, DefaultOptions)
}

// OpenWithOptions opens driver ("mysql" or "postgres"), applies o, and pings.
func OpenWithOptions(ctx context.Context, driver, dsn string, o Options) (*sqlx.DB, error) {
	o = o.withDefaults()

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	db.SetMaxOpenConns(o.MaxOpen)
	db.SetMaxIdleConns(o.MaxIdle)
	db.SetConnMaxLifetime(o.MaxLifetime)

	pctx, cancel := context.WithTimeout(ctx, o.PingTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	zap.L().Info("database connected",
		zap.String("driver", driver),
		zap.Int("max_open", o.MaxOpen),
		zap.Int("max_idle", o.MaxIdle),
	)
	return db, nil
}

func (o Options) withDefaults() Options {
	if o.MaxOpen <= 0 {
		o.MaxOpen = DefaultOptions.MaxOpen
	}
	if o.MaxIdle <= 0 {
		o.MaxIdle = DefaultOptions.MaxIdle
	}
	if o.MaxLifetime <= 0 {
		o.MaxLifetime = DefaultOptions.MaxLifetime
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = DefaultOptions.PingTimeout
	}
	return o
}

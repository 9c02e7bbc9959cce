package utils

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// The API talks to Postgres exclusively through the pgx stdlib driver; the
// driver name is fixed here rather than threaded through every caller.
const postgresDriver = "pgx"

// PostgresPoolConfig tunes the database/sql pool. Zero values take the
// defaults below, which are sized for this API's small fixed route surface
// rather than a high-fanout workload.
type PostgresPoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

func (c PostgresPoolConfig) withDefaults() PostgresPoolConfig {
	out := c
	if out.MaxOpenConns <= 0 {
		out.MaxOpenConns = 10
	}
	if out.MaxIdleConns <= 0 {
		out.MaxIdleConns = 5
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = time.Hour
	}
	if out.ConnMaxIdleTime <= 0 {
		out.ConnMaxIdleTime = 10 * time.Minute
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 3 * time.Second
	}
	return out
}

// OpenPostgres opens the pool and proves connectivity with one ping before
// handing it back. dsn carries credentials; never log it.
func OpenPostgres(ctx context.Context, dsn string, pool PostgresPoolConfig) (*sql.DB, error) {
	pool = pool.withDefaults()

	db, err := sql.Open(postgresDriver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	if err := HealthCheck(ctx, db, pool.PingTimeout); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// HealthCheck pings the pool with a bounded timeout. /healthz calls this on
// every probe, so the timeout must stay short.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("db ping failed: %w", err)
	}
	return nil
}

// TxFunc is the unit of work executed inside a transaction.
type TxFunc func(ctx context.Context, tx *sql.Tx) error

// txSettler is the slice of *sql.Tx that settleTx needs; tests substitute a
// recording fake.
type txSettler interface {
	Commit() error
	Rollback() error
}

// WithTx runs fn in a transaction at the default isolation level, which is
// all this service's writes need (person-with-phones insert, phone batches).
// fn returning an error rolls back; a panic rolls back and re-panics;
// otherwise the commit error, if any, is returned.
func WithTx(ctx context.Context, db *sql.DB, fn TxFunc) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	return settleTx(tx, func() error { return fn(ctx, tx) })
}

func settleTx(tx txSettler, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	err = fn()
	return err
}

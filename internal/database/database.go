// Package database centralises sqlx connection helpers for the optional
// submission archive.  The driver is go-sql-driver/mysql, which also works
// with MariaDB and Cockroach when configured for the MySQL wire protocol.
//
// Public entry points:
//
//	Open(ctx, dsn)                          – helper with conservative pool sizes.
//	OpenWithOptions(ctx, dsn, maxOpen, maxIdle) – fine-grained control.
//	Migrate(ctx, db)                        – creates contact_submission.
//
// Both Open helpers Ping the database before returning so callers can fail
// fast during bootstrap.  Callers should Close() the returned *sqlx.DB when
// no longer needed.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Open returns a *sqlx.DB with sane defaults: 15 max open, 5 idle, and a
// 30-minute connection lifetime.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, 15, 5)
}

// OpenWithOptions lets callers tune maxOpen and maxIdle per pool.
func OpenWithOptions(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// schema is idempotent; payload holds the JSON-encoded field map.
const schema = `
CREATE TABLE IF NOT EXISTS contact_submission (
    id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    form_id         VARCHAR(64)  NOT NULL,
    payload         JSON         NOT NULL,
    client_ip       VARCHAR(45)  NOT NULL DEFAULT '',
    country         CHAR(2)      NOT NULL DEFAULT '',
    city            VARCHAR(128) NOT NULL DEFAULT '',
    browser         VARCHAR(64)  NOT NULL DEFAULT '',
    browser_version VARCHAR(32)  NOT NULL DEFAULT '',
    os              VARCHAR(64)  NOT NULL DEFAULT '',
    device          VARCHAR(16)  NOT NULL DEFAULT '',
    is_bot          BOOLEAN      NOT NULL DEFAULT FALSE,
    lang            VARCHAR(35)  NOT NULL DEFAULT '',
    created_at      DATETIME(3)  NOT NULL,
    KEY idx_form_created (form_id, created_at)
)`

// Migrate creates the archive table when it does not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate contact_submission: %w", err)
	}
	return nil
}

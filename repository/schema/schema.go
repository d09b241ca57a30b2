package schema

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Statements returns the DDL for driver, one statement per element.
func Statements(driver string) ([]string, error) {
	switch driver {
	case "mysql":
		return mysqlStatements, nil
	case "sqlite":
		return sqliteStatements, nil
	default:
		return nil, fmt.Errorf("no schema for driver %q", driver)
	}
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB, driver string) error {
	stmts, err := Statements(driver)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var mysqlStatements = []string{
	`CREATE TABLE IF NOT EXISTS warehouse (
		id         VARCHAR(64)  NOT NULL PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		status     TINYINT      NOT NULL DEFAULT 1,
		created_at DATETIME(6)  NOT NULL
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS warehouse_stock (
		product_id   VARCHAR(64) NOT NULL,
		warehouse_id VARCHAR(64) NOT NULL,
		available    BIGINT      NOT NULL DEFAULT 0,
		reserved     BIGINT      NOT NULL DEFAULT 0,
		total        BIGINT      NOT NULL DEFAULT 0,
		updated_at   DATETIME(6) NOT NULL,
		PRIMARY KEY (product_id, warehouse_id),
		KEY idx_stock_warehouse (warehouse_id),
		CONSTRAINT chk_stock_quantities CHECK (available >= 0 AND reserved >= 0 AND available + reserved <= total)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS stock_reservation (
		id             VARCHAR(36)  NOT NULL PRIMARY KEY,
		reference_id   VARCHAR(128) NOT NULL DEFAULT '',
		product_id     VARCHAR(64)  NOT NULL,
		warehouse_id   VARCHAR(64)  NOT NULL,
		quantity       BIGINT       NOT NULL,
		status         VARCHAR(16)  NOT NULL,
		pending_status VARCHAR(16)  NOT NULL DEFAULT '',
		quarantined    BOOLEAN      NOT NULL DEFAULT FALSE,
		created_at     DATETIME(6)  NOT NULL,
		expires_at     DATETIME(6)  NOT NULL,
		updated_at     DATETIME(6)  NOT NULL,
		KEY idx_reservation_stock_status (product_id, warehouse_id, status),
		KEY idx_reservation_status_expiry (status, expires_at),
		KEY idx_reservation_reference (reference_id),
		CONSTRAINT chk_reservation_quantity CHECK (quantity > 0)
	) ENGINE=InnoDB`,
}

var sqliteStatements = []string{
	`CREATE TABLE IF NOT EXISTS warehouse (
		id         TEXT     NOT NULL PRIMARY KEY,
		name       TEXT     NOT NULL,
		status     INTEGER  NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS warehouse_stock (
		product_id   TEXT     NOT NULL,
		warehouse_id TEXT     NOT NULL,
		available    INTEGER  NOT NULL DEFAULT 0,
		reserved     INTEGER  NOT NULL DEFAULT 0,
		total        INTEGER  NOT NULL DEFAULT 0,
		updated_at   DATETIME NOT NULL,
		PRIMARY KEY (product_id, warehouse_id),
		CHECK (available >= 0 AND reserved >= 0 AND available + reserved <= total)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_warehouse ON warehouse_stock(warehouse_id)`,

	`CREATE TABLE IF NOT EXISTS stock_reservation (
		id             TEXT     NOT NULL PRIMARY KEY,
		reference_id   TEXT     NOT NULL DEFAULT '',
		product_id     TEXT     NOT NULL,
		warehouse_id   TEXT     NOT NULL,
		quantity       INTEGER  NOT NULL CHECK (quantity > 0),
		status         TEXT     NOT NULL,
		pending_status TEXT     NOT NULL DEFAULT '',
		quarantined    BOOLEAN  NOT NULL DEFAULT 0,
		created_at     DATETIME NOT NULL,
		expires_at     DATETIME NOT NULL,
		updated_at     DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservation_stock_status ON stock_reservation(product_id, warehouse_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_reservation_status_expiry ON stock_reservation(status, expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_reservation_reference ON stock_reservation(reference_id)`,
}

// OpenSQLite connects to an embedded sqlite database and applies the schema.
// A single connection is kept so that ":memory:" databases are shared and writers never contend.
func OpenSQLite(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := Migrate(ctx, db, "sqlite"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

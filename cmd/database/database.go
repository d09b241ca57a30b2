package database

import (
	"context"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/muhammadheryan/stock-reservation/cmd/config"
	"github.com/muhammadheryan/stock-reservation/repository/schema"
)

// Connect opens the configured SQL database and applies connection pool settings.
// Callers must not use it with the memory driver.
func Connect(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		return schema.OpenSQLite(ctx, cfg.GetDSN())
	case "mysql":
		db, err := sqlx.ConnectContext(ctx, "mysql", cfg.GetDSN())
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
		return db, nil
	default:
		return nil, fmt.Errorf("driver %q has no sql connection", cfg.Database.Driver)
	}
}

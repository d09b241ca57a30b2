package config

import (
	"testing"
	"time"

	"github.com/muhammadheryan/stock-reservation/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("RESERVATION_HOLD_DURATION", "")
	t.Setenv("SWEEPER_BATCH_SIZE", "")

	cfg := Load()
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, constant.DefaultHoldDuration, cfg.Reservation.HoldDuration)
	assert.Equal(t, constant.DefaultSweepBatchSize, cfg.Sweeper.BatchSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/stock.db")
	t.Setenv("RESERVATION_HOLD_DURATION", "90s")
	t.Setenv("SWEEPER_CONCURRENCY", "3")
	t.Setenv("REDIS_ENABLED", "true")

	cfg := Load()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 90*time.Second, cfg.Reservation.HoldDuration)
	assert.Equal(t, 3, cfg.Sweeper.Concurrency)
	assert.True(t, cfg.Redis.Enabled)
	assert.Contains(t, cfg.GetDSN(), "/tmp/stock.db?_time_format=sqlite")
}

func TestGetDSNMySQL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: "mysql", User: "u", Password: "p", Host: "db", Port: 3306, Name: "stock"}}
	assert.Equal(t, "u:p@tcp(db:3306)/stock?parseTime=true&loc=UTC", cfg.GetDSN())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database:    DatabaseConfig{Driver: "memory"},
			Reservation: ReservationConfig{HoldDuration: time.Minute, LedgerBackend: "sql"},
			Sweeper:     SweeperConfig{Interval: time.Minute, BatchSize: 10, Concurrency: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "postgres" }, wantErr: true},
		{name: "redis ledger without redis", mutate: func(c *Config) { c.Reservation.LedgerBackend = "redis" }, wantErr: true},
		{name: "redis ledger with redis", mutate: func(c *Config) { c.Reservation.LedgerBackend = "redis"; c.Redis.Enabled = true }},
		{name: "zero hold", mutate: func(c *Config) { c.Reservation.HoldDuration = 0 }, wantErr: true},
		{name: "zero batch", mutate: func(c *Config) { c.Sweeper.BatchSize = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

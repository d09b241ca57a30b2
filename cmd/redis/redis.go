package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/muhammadheryan/stock-reservation/cmd/config"
	"github.com/muhammadheryan/stock-reservation/utils/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var client *redis.Client

// New connects the shared client used by the availability cache and the redis ledger.
func New(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config provided")
	}

	c, err := Dial(cfg.Redis)
	if err != nil {
		return err
	}
	client = c
	return nil
}

// Dial builds a client from rc and pings it within the dial timeout.
func Dial(rc config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", rc.Host, rc.Port)
	c := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     rc.Password,
		DB:           rc.DB,
		PoolSize:     rc.PoolSize,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout(rc))
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("unable to ping redis at %s: %w", addr, err)
	}
	logger.Info("redis connected", zap.String("addr", addr), zap.Int("db", rc.DB))
	return c, nil
}

func dialTimeout(rc config.RedisConfig) time.Duration {
	if rc.DialTimeout > 0 {
		return rc.DialTimeout
	}
	return 5 * time.Second
}

func Get() *redis.Client {
	return client
}

func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}

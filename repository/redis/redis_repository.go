package redis

import (
	"context"
	"encoding/json"
	"time"

	redisclient "github.com/muhammadheryan/stock-reservation/cmd/redis"
	"github.com/muhammadheryan/stock-reservation/model"
	goredis "github.com/redis/go-redis/v9"
)

// Repository caches availability snapshots. Every method is a no-op when redis is not configured.
type Repository interface {
	GetAvailability(ctx context.Context, productID string) (*model.Availability, error)
	SetAvailability(ctx context.Context, a *model.Availability, ttl time.Duration) error
	DeleteAvailability(ctx context.Context, productID string) error
}

type redis struct {
	client func() *goredis.Client
}

// NewRepository returns a Repository backed by the shared client from cmd/redis.
func NewRepository() Repository {
	return &redis{client: redisclient.Get}
}

// NewRepositoryWithClient binds the repository to c instead of the shared client.
func NewRepositoryWithClient(c *goredis.Client) Repository {
	return &redis{client: func() *goredis.Client { return c }}
}

func availabilityKey(productID string) string {
	return "availability:" + productID
}

// GetAvailability returns nil on a cache miss.
func (r *redis) GetAvailability(ctx context.Context, productID string) (*model.Availability, error) {
	client := r.client()
	if client == nil {
		return nil, nil
	}
	val, err := client.Get(ctx, availabilityKey(productID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var a model.Availability
	if err := json.Unmarshal(val, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// SetAvailability stores the snapshot with time-to-live
func (r *redis) SetAvailability(ctx context.Context, a *model.Availability, ttl time.Duration) error {
	client := r.client()
	if client == nil || ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return client.Set(ctx, availabilityKey(a.ProductID), b, ttl).Err()
}

// DeleteAvailability drops the cached snapshot for productID
func (r *redis) DeleteAvailability(ctx context.Context, productID string) error {
	client := r.client()
	if client == nil {
		return nil
	}
	return client.Del(ctx, availabilityKey(productID)).Err()
}

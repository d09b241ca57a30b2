package redis_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	redisrepo "github.com/muhammadheryan/stock-reservation/repository/redis"
	"github.com/muhammadheryan/stock-reservation/model"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_NoClientIsPassThrough(t *testing.T) {
	ctx := context.Background()
	repo := redisrepo.NewRepositoryWithClient(nil)

	require.NoError(t, repo.SetAvailability(ctx, &model.Availability{ProductID: "p-1", TotalAvailable: 3}, time.Minute))
	got, err := repo.GetAvailability(ctx, "p-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, repo.DeleteAvailability(ctx, "p-1"))
}

func TestRepository_AvailabilityRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	repo := redisrepo.NewRepositoryWithClient(client)
	product := fmt.Sprintf("p-%d", time.Now().UnixNano())

	got, err := repo.GetAvailability(ctx, product)
	require.NoError(t, err)
	assert.Nil(t, got)

	snapshot := &model.Availability{
		ProductID:      product,
		TotalAvailable: 15,
		PerWarehouse:   []model.WarehouseAvailability{{WarehouseID: "WH-001", Available: 15}},
	}
	require.NoError(t, repo.SetAvailability(ctx, snapshot, time.Minute))

	got, err = repo.GetAvailability(ctx, product)
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)

	require.NoError(t, repo.DeleteAvailability(ctx, product))
	got, err = repo.GetAvailability(ctx, product)
	require.NoError(t, err)
	assert.Nil(t, got)
}

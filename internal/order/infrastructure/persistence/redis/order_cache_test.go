package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/musicstore/internal/order/domain"
)

func TestOrderCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewOrderCache(client, time.Minute)
	ctx := context.Background()

	got, err := cache.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Nil(t, got)

	order := &domain.Order{ID: "o1", UserID: "u1", TotalAmount: 2000, Status: domain.StatusShipped}
	require.NoError(t, cache.Save(ctx, order))
	assert.Equal(t, time.Minute, mr.TTL("order:o1"))

	got, err = cache.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, got.Status)

	require.NoError(t, cache.Invalidate(ctx, "o1"))
	got, err = cache.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

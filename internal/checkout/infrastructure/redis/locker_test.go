package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/musicstore/pkg/cache"
)

func TestLockerExclusiveAndTokenChecked(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := NewLocker(cache.NewFromClient(client))
	ctx := context.Background()

	token, ok, err := locker.Acquire(ctx, "checkout:lock:u1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("checkout:lock:u1"))

	_, ok, err = locker.Acquire(ctx, "checkout:lock:u1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// 其他令牌无法释放
	require.NoError(t, locker.Release(ctx, "checkout:lock:u1", "someone-else"))
	assert.True(t, mr.Exists("checkout:lock:u1"))

	require.NoError(t, locker.Release(ctx, "checkout:lock:u1", token))
	assert.False(t, mr.Exists("checkout:lock:u1"))

	_, ok, err = locker.Acquire(ctx, "checkout:lock:u1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockerExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := NewLocker(cache.NewFromClient(client))
	ctx := context.Background()

	token, ok, err := locker.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	mr.FastForward(2 * time.Second)

	_, ok, err = locker.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, locker.Release(ctx, "k", token))
	assert.True(t, mr.Exists("k"))
}

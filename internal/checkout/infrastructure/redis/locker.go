// Package redis 基于 Redis 的结算锁
package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/musicstore/pkg/cache"
)

// Locker SET NX 加锁，释放时校验令牌
type Locker struct {
	cache *cache.RedisCache
}

// NewLocker 创建结算锁
func NewLocker(c *cache.RedisCache) *Locker {
	return &Locker{cache: c}
}

// Acquire 获取锁，已被占用时 ok 为 false
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.cache.SetNX(ctx, key, token, ttl)
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release 仅释放自己持有的锁，锁已过期时不报错
func (l *Locker) Release(ctx context.Context, key, token string) error {
	_, err := l.cache.ReleaseIfOwner(ctx, key, token)
	return err
}

// Package redis 提供服务端购物车镜像
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/musicstore/internal/cart/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
)

type mirror struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewMirror 创建某个会话所有者的镜像，ttl 为 0 时使用默认 7 天
func NewMirror(client redis.UniversalClient, ownerID string, ttl time.Duration) domain.Mirror {
	if ttl <= 0 {
		ttl = domain.MirrorTTL
	}
	return &mirror{
		client: client,
		key:    fmt.Sprintf("cart:%s:cartItems", ownerID),
		ttl:    ttl,
	}
}

func (m *mirror) Load(ctx context.Context) ([]domain.CartItem, error) {
	data, err := m.client.Get(ctx, m.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []domain.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		// 损坏的镜像按不存在处理
		logger.Warn(ctx, "discarding malformed cart mirror", "key", m.key, "error", err)
		return nil, nil
	}
	return items, nil
}

func (m *mirror) Store(ctx context.Context, items []domain.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return m.client.Set(ctx, m.key, data, m.ttl).Err()
}

func (m *mirror) Remove(ctx context.Context) error {
	return m.client.Del(ctx, m.key).Err()
}

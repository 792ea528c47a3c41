package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/musicstore/internal/order/domain"
)

type orderCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewOrderCache 创建订单详情缓存
func NewOrderCache(client redis.UniversalClient, ttl time.Duration) domain.OrderCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &orderCache{
		client: client,
		prefix: "order:",
		ttl:    ttl,
	}
}

func (r *orderCache) Save(ctx context.Context, order *domain.Order) error {
	if order == nil {
		return nil
	}
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	return r.client.Set(ctx, r.key(order.ID), data, r.ttl).Err()
}

// Get 未命中时返回 nil, nil
func (r *orderCache) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, nil
	}
	data, err := r.client.Get(ctx, r.key(orderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order from redis: %w", err)
	}
	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	return &order, nil
}

func (r *orderCache) Invalidate(ctx context.Context, orderID string) error {
	return r.client.Del(ctx, r.key(orderID)).Err()
}

func (r *orderCache) key(orderID string) string {
	return r.prefix + orderID
}

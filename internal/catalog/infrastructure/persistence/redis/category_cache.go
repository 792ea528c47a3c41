// Package redis 提供分类树的 Redis 缓存
package redis

import (
	"context"
	"time"

	"github.com/wyfcoding/musicstore/internal/catalog/domain"
	"github.com/wyfcoding/musicstore/pkg/cache"
)

const categoriesKey = "catalog:categories"

type categoryCache struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

// NewCategoryCache 创建分类缓存
func NewCategoryCache(c *cache.RedisCache, ttl time.Duration) domain.CategoryCache {
	return &categoryCache{cache: c, ttl: ttl}
}

func (c *categoryCache) Get(ctx context.Context) ([]*domain.Category, bool, error) {
	var categories []*domain.Category
	ok, err := c.cache.GetJSON(ctx, categoriesKey, &categories)
	if err != nil || !ok {
		return nil, false, err
	}
	return categories, true, nil
}

func (c *categoryCache) Set(ctx context.Context, categories []*domain.Category) error {
	return c.cache.SetJSON(ctx, categoriesKey, categories, c.ttl)
}

func (c *categoryCache) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, categoriesKey)
}

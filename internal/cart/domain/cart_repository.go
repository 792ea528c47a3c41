package domain

import (
	"context"
	"time"
)

// MirrorTTL 持久化镜像的保留时长
const MirrorTTL = 7 * 24 * time.Hour

// Mirror 购物车持久化镜像
// Load 无记录时返回空切片；Remove 在购物车变空时调用
type Mirror interface {
	Load(ctx context.Context) ([]CartItem, error)
	Store(ctx context.Context, items []CartItem) error
	Remove(ctx context.Context) error
}

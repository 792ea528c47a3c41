package domain

import (
	"context"
)

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// Create 写入订单，相同 ID 已存在时视为成功
	Create(ctx context.Context, order *Order) error
	// Get 根据订单 ID 获取订单，不存在时返回 ErrOrderNotFound
	Get(ctx context.Context, orderID string) (*Order, error)
	// ListByUser 获取用户订单列表，按创建时间倒序
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	// ListAll 获取全部订单，按创建时间倒序
	ListAll(ctx context.Context, offset, limit int) ([]*Order, int64, error)
	// UpdateStatus 更新订单状态
	UpdateStatus(ctx context.Context, orderID string, status Status) error
}

// OrderCache 订单详情缓存
type OrderCache interface {
	Get(ctx context.Context, orderID string) (*Order, error)
	Save(ctx context.Context, order *Order) error
	Invalidate(ctx context.Context, orderID string) error
}

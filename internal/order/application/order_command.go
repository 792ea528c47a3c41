package application

import (
	"context"
	"time"

	"github.com/wyfcoding/musicstore/internal/order/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
)

// OrderCommandService 订单命令服务
type OrderCommandService struct {
	repo      domain.OrderRepository
	cache     domain.OrderCache
	publisher domain.EventPublisher
}

// NewOrderCommandService 创建订单命令服务，cache 可为 nil
func NewOrderCommandService(repo domain.OrderRepository, cache domain.OrderCache, publisher domain.EventPublisher) *OrderCommandService {
	return &OrderCommandService{repo: repo, cache: cache, publisher: publisher}
}

// Create 写入订单，重复写入同一 ID 视为成功
func (s *OrderCommandService) Create(ctx context.Context, order *domain.Order) error {
	return s.repo.Create(ctx, order)
}

// UpdateStatus 管理员修改订单状态
func (s *OrderCommandService) UpdateStatus(ctx context.Context, orderID, status string) (*domain.Order, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	old := order.Status
	if err := s.repo.UpdateStatus(ctx, orderID, st); err != nil {
		return nil, err
	}
	order.Status = st
	order.UpdatedAt = time.Now()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, orderID); err != nil {
			logger.Warn(ctx, "failed to invalidate order cache", "order_id", orderID, "error", err)
		}
	}
	if s.publisher != nil {
		event := domain.OrderStatusChangedEvent{
			OrderID:   orderID,
			OldStatus: old,
			NewStatus: st,
			Timestamp: order.UpdatedAt,
		}
		if err := s.publisher.Publish(ctx, domain.TopicOrderStatusChanged, orderID, event); err != nil {
			logger.Warn(ctx, "failed to publish order status event", "order_id", orderID, "error", err)
		}
	}
	logger.Info(ctx, "order status updated", "order_id", orderID, "old_status", string(old), "new_status", string(st))
	return order, nil
}

package application

import (
	"context"

	"github.com/wyfcoding/musicstore/internal/order/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
	"github.com/wyfcoding/musicstore/pkg/utils"
)

// OrderQueryService 订单查询服务
type OrderQueryService struct {
	repo  domain.OrderRepository
	cache domain.OrderCache
}

// NewOrderQueryService 创建订单查询服务，cache 可为 nil
func NewOrderQueryService(repo domain.OrderRepository, cache domain.OrderCache) *OrderQueryService {
	return &OrderQueryService{repo: repo, cache: cache}
}

// GetOrder 获取订单详情，仅下单人与管理员可见
func (s *OrderQueryService) GetOrder(ctx context.Context, orderID, viewerID string, isAdmin bool) (*domain.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.VisibleTo(viewerID, isAdmin) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

// ListMyOrders 我的订单
func (s *OrderQueryService) ListMyOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListOrders 后台订单列表
func (s *OrderQueryService) ListOrders(ctx context.Context, page *utils.Pagination) ([]*domain.Order, *utils.Pagination, error) {
	orders, total, err := s.repo.ListAll(ctx, page.Offset(), page.Limit())
	if err != nil {
		return nil, nil, err
	}
	return orders, page.WithTotal(total), nil
}

func (s *OrderQueryService) load(ctx context.Context, orderID string) (*domain.Order, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, orderID)
		if err != nil {
			logger.Warn(ctx, "order cache read failed", "order_id", orderID, "error", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Save(ctx, order); err != nil {
			logger.Warn(ctx, "order cache write failed", "order_id", orderID, "error", err)
		}
	}
	return order, nil
}

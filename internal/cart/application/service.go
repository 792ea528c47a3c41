// Package application 提供会话级购物车服务
package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/wyfcoding/musicstore/internal/cart/domain"
)

// CartService 单个会话的购物车
// 每次变更先作用于副本，镜像写入成功后再替换内存状态
type CartService struct {
	mu     sync.Mutex
	cart   *domain.Cart
	mirror domain.Mirror
}

// Open 从镜像恢复购物车
func Open(ctx context.Context, mirror domain.Mirror) (*CartService, error) {
	items, err := mirror.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cart mirror: %w", err)
	}
	return &CartService{cart: domain.NewCart(items), mirror: mirror}, nil
}

// Add 加入商品，同 ID 累加数量
func (s *CartService) Add(ctx context.Context, item domain.CartItem) error {
	return s.mutate(ctx, func(c *domain.Cart) { c.Add(item) })
}

// SetQuantity 替换数量，调用方负责拒绝小于 1 的值
func (s *CartService) SetQuantity(ctx context.Context, id string, qty int) error {
	return s.mutate(ctx, func(c *domain.Cart) { c.SetQuantity(id, qty) })
}

// Remove 删除行
func (s *CartService) Remove(ctx context.Context, id string) error {
	return s.mutate(ctx, func(c *domain.Cart) { c.Remove(id) })
}

// Clear 清空并删除镜像
func (s *CartService) Clear(ctx context.Context) error {
	return s.mutate(ctx, func(c *domain.Cart) { c.Clear() })
}

// Items 当前行的副本
func (s *CartService) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Items()
}

// Total 当前总价
func (s *CartService) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

// IsEmpty 是否为空
func (s *CartService) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.IsEmpty()
}

func (s *CartService) mutate(ctx context.Context, fn func(*domain.Cart)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cart.Clone()
	fn(next)

	var err error
	if next.IsEmpty() {
		err = s.mirror.Remove(ctx)
	} else {
		err = s.mirror.Store(ctx, next.Items())
	}
	if err != nil {
		return fmt.Errorf("write cart mirror: %w", err)
	}

	s.cart = next
	return nil
}

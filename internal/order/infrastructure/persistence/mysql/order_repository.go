// Package mysql 提供订单仓储的 GORM 实现
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/musicstore/internal/order/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShippingColumns 配送地址列
type ShippingColumns struct {
	PostalCode  string `gorm:"column:postal_code;type:varchar(16)"`
	Prefecture  string `gorm:"column:prefecture;type:varchar(32)"`
	City        string `gorm:"column:city;type:varchar(100)"`
	AddressLine string `gorm:"column:address_line;type:varchar(255)"`
}

// OrderModel 订单数据库模型
type OrderModel struct {
	ID              string            `gorm:"column:id;type:varchar(36);primaryKey"`
	UserID          string            `gorm:"column:user_id;type:varchar(36);index;not null"`
	LineItems       []domain.LineItem `gorm:"column:line_items;serializer:json"`
	TotalAmount     int64             `gorm:"column:total_amount;not null"`
	Shipping        ShippingColumns   `gorm:"embedded;embeddedPrefix:shipping_"`
	Status          string            `gorm:"column:status;type:varchar(32);not null;default:''"`
	PaymentIntentID string            `gorm:"column:payment_intent_id;type:varchar(255)"`
	CreatedAt       time.Time         `gorm:"column:created_at;index"`
	UpdatedAt       time.Time         `gorm:"column:updated_at"`
}

// TableName 指定表名
func (OrderModel) TableName() string { return "orders" }

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) domain.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	model := fromDomain(order)
	// 重试时同一 ID 已写入则不做任何修改
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(model).Error; err != nil {
		logger.Error(ctx, "order_repository.create failed", "order_id", order.ID, "error", err)
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var m OrderModel
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return m.toDomain(), nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	var models []OrderModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return toDomainList(models), nil
}

func (r *orderRepository) ListAll(ctx context.Context, offset, limit int) ([]*domain.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&OrderModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	q := r.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	var models []OrderModel
	if err := q.Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return toDomainList(models), total, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.Status) error {
	res := r.db.WithContext(ctx).Model(&OrderModel{}).Where("id = ?", orderID).Update("status", string(status))
	if res.Error != nil {
		return fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&OrderModel{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		if count == 0 {
			return domain.ErrOrderNotFound
		}
	}
	return nil
}

func fromDomain(o *domain.Order) *OrderModel {
	return &OrderModel{
		ID:              o.ID,
		UserID:          o.UserID,
		LineItems:       o.LineItems,
		TotalAmount:     o.TotalAmount,
		Shipping:        ShippingColumns(o.ShippingAddress),
		Status:          string(o.Status),
		PaymentIntentID: o.PaymentIntentID,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (m *OrderModel) toDomain() *domain.Order {
	return &domain.Order{
		ID:              m.ID,
		UserID:          m.UserID,
		LineItems:       m.LineItems,
		TotalAmount:     m.TotalAmount,
		ShippingAddress: domain.ShippingAddress(m.Shipping),
		Status:          domain.Status(m.Status),
		PaymentIntentID: m.PaymentIntentID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toDomainList(models []OrderModel) []*domain.Order {
	out := make([]*domain.Order, 0, len(models))
	for i := range models {
		out = append(out, models[i].toDomain())
	}
	return out
}

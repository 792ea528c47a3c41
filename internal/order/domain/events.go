package domain

import (
	"context"
	"time"
)

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status.changed"
)

// EventPublisher 事件发布者接口
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// OrderCreatedEvent 订单创建事件
type OrderCreatedEvent struct {
	OrderID         string     `json:"order_id"`
	UserID          string     `json:"user_id"`
	TotalAmount     int64      `json:"total_amount"`
	LineItems       []LineItem `json:"line_items"`
	PaymentIntentID string     `json:"payment_intent_id"`
	Timestamp       time.Time  `json:"timestamp"`
}

// OrderStatusChangedEvent 订单状态变更事件
type OrderStatusChangedEvent struct {
	OrderID   string    `json:"order_id"`
	OldStatus Status    `json:"old_status"`
	NewStatus Status    `json:"new_status"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOrderCreatedEvent 由订单构造创建事件
func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:         o.ID,
		UserID:          o.UserID,
		TotalAmount:     o.TotalAmount,
		LineItems:       o.LineItems,
		PaymentIntentID: o.PaymentIntentID,
		Timestamp:       o.CreatedAt,
	}
}

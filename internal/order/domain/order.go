// Package domain 包含订单的领域模型
package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyOrder    = errors.New("order has no line items")
	ErrForbidden     = errors.New("order belongs to another user")
)

// Status 订单状态，未设置时为空串
type Status string

const (
	StatusUnset    Status = ""
	StatusShipped  Status = "発送済み"
	StatusCanceled Status = "キャンセル"
)

// InvalidStatusError 不允许的状态值
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid order status %q", e.Value)
}

// ParseStatus 只接受空串、発送済み、キャンセル
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusUnset, StatusShipped, StatusCanceled:
		return st, nil
	default:
		return "", &InvalidStatusError{Value: s}
	}
}

// LineItem 下单时的商品快照
type LineItem struct {
	ProductID string `json:"id" bson:"id"`
	Name      string `json:"name" bson:"name"`
	Price     int64  `json:"price" bson:"price"`
	Quantity  int    `json:"quantity" bson:"quantity"`
	ImageURL  string `json:"imageUrl" bson:"imageUrl"`
}

// Subtotal 小计
func (l LineItem) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// ShippingAddress 下单时的配送地址快照
type ShippingAddress struct {
	PostalCode  string `json:"postalCode" bson:"postalCode"`
	Prefecture  string `json:"prefecture" bson:"prefecture"`
	City        string `json:"city" bson:"city"`
	AddressLine string `json:"addressLine" bson:"addressLine"`
}

// Order 订单实体
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	LineItems       []LineItem      `json:"lineItems"`
	TotalAmount     int64           `json:"totalAmount"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Status          Status          `json:"status"`
	PaymentIntentID string          `json:"paymentIntentId"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// NewOrder 创建订单，总额由行快照计算
func NewOrder(id, userID string, items []LineItem, ship ShippingAddress, paymentIntentID string, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	lines := make([]LineItem, len(items))
	copy(lines, items)
	return &Order{
		ID:              id,
		UserID:          userID,
		LineItems:       lines,
		TotalAmount:     Total(lines),
		ShippingAddress: ship,
		Status:          StatusUnset,
		PaymentIntentID: paymentIntentID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Total 行小计之和
func Total(items []LineItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Subtotal()
	}
	return total
}

// VisibleTo 仅下单人与管理员可见
func (o *Order) VisibleTo(userID string, isAdmin bool) bool {
	return isAdmin || (userID != "" && o.UserID == userID)
}

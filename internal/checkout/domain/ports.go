package domain

import (
	"context"
	"time"
)

// LineItem 结算时的购物车行快照
type LineItem struct {
	ProductID string
	Name      string
	Price     int64
	Quantity  int
	ImageURL  string
}

// Subtotal 小计
func (l LineItem) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// Total 合计，始终由行快照重新计算
func Total(lines []LineItem) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}

// Cart 结算读取并在成功后清空的购物车
type Cart interface {
	Items() []LineItem
	Clear(ctx context.Context) error
}

// Locker 按用户加锁，防止重复提交
type Locker interface {
	// Acquire 获取失败返回 ok=false，不返回错误
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// Recorder 结算指标
type Recorder interface {
	RecordCheckout(state, kind string)
	RecordPayment(outcome string, duration time.Duration)
	RecordReservationFailure()
	RecordCompensation(action string, err error)
}

// Result 成功结算的结果
type Result struct {
	OrderID     string `json:"order_id"`
	TotalAmount int64  `json:"total_amount"`
	Redirect    string `json:"redirect"`
	Trace       []Step `json:"trace"`
}

// RedirectConfirm 结算成功后的跳转页
const RedirectConfirm = "/confirm"

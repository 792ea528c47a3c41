package domain

import "time"

// TopicCartCleared 结算成功后清空购物车
const TopicCartCleared = "cart.cleared"

// CartClearedEvent 购物车清空事件
type CartClearedEvent struct {
	OwnerID   string    `json:"owner_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

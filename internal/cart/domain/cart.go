// Package domain 包含购物车的领域模型
package domain

import "slices"

// CartItem 购物车行
// JSON 字段名即 cartItems 镜像的线上格式
type CartItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	ImageURL string `json:"imageUrl"`
}

// Subtotal 单价乘数量
func (i CartItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Cart 购物车，行按 ID 唯一
type Cart struct {
	items []CartItem
}

// NewCart 以给定行构建购物车，重复 ID 会被合并
func NewCart(items []CartItem) *Cart {
	c := &Cart{}
	for _, it := range items {
		c.Add(it)
	}
	return c
}

// Add 已存在则累加数量，否则追加
func (c *Cart) Add(item CartItem) {
	for i := range c.items {
		if c.items[i].ID == item.ID {
			c.items[i].Quantity += item.Quantity
			return
		}
	}
	c.items = append(c.items, item)
}

// SetQuantity 替换数量，数量下限由调用方校验
func (c *Cart) SetQuantity(id string, qty int) {
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = qty
			return
		}
	}
}

// Remove 删除行，ID 不存在时无操作
func (c *Cart) Remove(id string) {
	c.items = slices.DeleteFunc(c.items, func(it CartItem) bool { return it.ID == id })
}

// Clear 清空
func (c *Cart) Clear() {
	c.items = nil
}

// Total 每次读取时重新计算
func (c *Cart) Total() int64 {
	var t int64
	for _, it := range c.items {
		t += it.Subtotal()
	}
	return t
}

// Items 返回副本
func (c *Cart) Items() []CartItem {
	return slices.Clone(c.items)
}

// IsEmpty 是否为空
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Clone 深拷贝
func (c *Cart) Clone() *Cart {
	return &Cart{items: slices.Clone(c.items)}
}

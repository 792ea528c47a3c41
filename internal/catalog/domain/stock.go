package domain

import (
	"context"
	"fmt"
	"sort"
)

// StockLine 单个商品的预留数量
type StockLine struct {
	ProductID string
	Quantity  int
}

// InsufficientStockError 预留时库存不足或商品不存在
type InsufficientStockError struct {
	ProductID string
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested %d)", e.ProductID, e.Requested)
}

// StockLedger 库存预留与释放
// Reserve 要么全部扣减要么全部不变
type StockLedger interface {
	Reserve(ctx context.Context, lines []StockLine) error
	Release(ctx context.Context, lines []StockLine) error
}

// NormalizeLines 合并同一商品并按 ID 排序，固定加锁顺序
func NormalizeLines(lines []StockLine) []StockLine {
	merged := make(map[string]int, len(lines))
	for _, l := range lines {
		merged[l.ProductID] += l.Quantity
	}
	out := make([]StockLine, 0, len(merged))
	for id, qty := range merged {
		out = append(out, StockLine{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

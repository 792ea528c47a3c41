// Package domain 包含商品目录的领域模型
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryNotFound 分类不存在
	ErrCategoryNotFound = errors.New("category not found")
)

// Product 商品实体
// 价格以整数货币单位保存（日元无小数）
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	SubCategory string    `json:"subCategory"`
	ImageURL    string    `json:"imageUrl"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ValidationError 商品字段校验失败
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid product %s: %s", e.Field, e.Reason)
}

// Validate 校验可编辑字段
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if p.Price <= 0 {
		return &ValidationError{Field: "price", Reason: "must be greater than 0"}
	}
	if p.Stock < 0 {
		return &ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	if strings.TrimSpace(p.Category) == "" {
		return &ValidationError{Field: "category", Reason: "required"}
	}
	return nil
}

// HasStock 库存是否满足请求数量
func (p *Product) HasStock(qty int) bool {
	return qty > 0 && p.Stock >= qty
}

// ProductFilter 商品列表筛选条件，空值表示不过滤
type ProductFilter struct {
	Category    string
	SubCategory string
}

package domain

import "context"

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// Save 新建或更新商品
	Save(ctx context.Context, product *Product) error
	// GetByID 不存在时返回 ErrProductNotFound
	GetByID(ctx context.Context, id string) (*Product, error)
	// GetByIDs 批量读取，缺失的 ID 不出现在结果中
	GetByIDs(ctx context.Context, ids []string) (map[string]*Product, error)
	// List 按创建时间倒序
	List(ctx context.Context, filter ProductFilter, offset, limit int) ([]*Product, int64, error)
	Delete(ctx context.Context, id string) error
}

// CategoryRepository 分类仓储接口
type CategoryRepository interface {
	List(ctx context.Context) ([]*Category, error)
	Save(ctx context.Context, category *Category) error
	Delete(ctx context.Context, name string) error
}

// CategoryCache 分类缓存
type CategoryCache interface {
	Get(ctx context.Context) ([]*Category, bool, error)
	Set(ctx context.Context, categories []*Category) error
	Invalidate(ctx context.Context) error
}

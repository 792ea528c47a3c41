// Package mysql 提供商品目录仓储与库存账本的 GORM 实现
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/musicstore/internal/catalog/domain"
	"github.com/wyfcoding/musicstore/pkg/db"
	"github.com/wyfcoding/musicstore/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductModel 商品数据库模型
type ProductModel struct {
	ID          string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Name        string    `gorm:"column:name;type:varchar(255);not null"`
	Price       int64     `gorm:"column:price;not null"`
	Stock       int       `gorm:"column:stock;not null;default:0;check:stock >= 0"`
	Category    string    `gorm:"column:category;type:varchar(100);index:idx_category_sub"`
	SubCategory string    `gorm:"column:sub_category;type:varchar(100);index:idx_category_sub"`
	ImageURL    string    `gorm:"column:image_url;type:varchar(1024)"`
	Description string    `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// TableName 指定表名
func (ProductModel) TableName() string { return "products" }

// CategoryModel 分类数据库模型
type CategoryModel struct {
	Name          string   `gorm:"column:name;type:varchar(100);primaryKey"`
	SubCategories []string `gorm:"column:sub_categories;serializer:json"`
}

// TableName 指定表名
func (CategoryModel) TableName() string { return "categories" }

type productRepository struct{ db *gorm.DB }

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) domain.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Save(ctx context.Context, product *domain.Product) error {
	model := fromProduct(product)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		logger.Error(ctx, "product_repository.save failed", "product_id", product.ID, "error", err)
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var m ProductModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return m.toDomain(), nil
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	out := make(map[string]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var models []ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	for i := range models {
		out[models[i].ID] = models[i].toDomain()
	}
	return out, nil
}

func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter, offset, limit int) ([]*domain.Product, int64, error) {
	var models []ProductModel
	var total int64

	q := r.db.WithContext(ctx).Model(&ProductModel{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.SubCategory != "" {
		q = q.Where("sub_category = ?", filter.SubCategory)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	q = q.Order("created_at desc")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]*domain.Product, len(models))
	for i := range models {
		products[i] = models[i].toDomain()
	}
	return products, total, nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ProductModel{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

type categoryRepository struct{ db *gorm.DB }

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *gorm.DB) domain.CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	var models []CategoryModel
	if err := r.db.WithContext(ctx).Order("name").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	out := make([]*domain.Category, len(models))
	for i, m := range models {
		out[i] = &domain.Category{Name: m.Name, SubCategories: m.SubCategories}
	}
	return out, nil
}

func (r *categoryRepository) Save(ctx context.Context, category *domain.Category) error {
	model := &CategoryModel{Name: category.Name, SubCategories: category.SubCategories}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error
}

func (r *categoryRepository) Delete(ctx context.Context, name string) error {
	res := r.db.WithContext(ctx).Where("name = ?", name).Delete(&CategoryModel{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// stockLedger 基于条件更新的库存账本
type stockLedger struct{ db *gorm.DB }

// NewStockLedger 创建库存账本
func NewStockLedger(db *gorm.DB) domain.StockLedger {
	return &stockLedger{db: db}
}

// Reserve 在单个事务内按 ID 顺序扣减，任一商品不足则整体回滚
func (l *stockLedger) Reserve(ctx context.Context, lines []domain.StockLine) error {
	return db.WithTx(ctx, l.db, func(tx *gorm.DB) error {
		for _, line := range domain.NormalizeLines(lines) {
			res := tx.Model(&ProductModel{}).
				Where("id = ? AND stock >= ?", line.ProductID, line.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", line.Quantity))
			if res.Error != nil {
				return fmt.Errorf("reserve %s: %w", line.ProductID, res.Error)
			}
			if res.RowsAffected == 0 {
				return &domain.InsufficientStockError{ProductID: line.ProductID, Requested: line.Quantity}
			}
		}
		return nil
	})
}

// Release 归还预留的库存
func (l *stockLedger) Release(ctx context.Context, lines []domain.StockLine) error {
	return db.WithTx(ctx, l.db, func(tx *gorm.DB) error {
		for _, line := range domain.NormalizeLines(lines) {
			res := tx.Model(&ProductModel{}).
				Where("id = ?", line.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", line.Quantity))
			if res.Error != nil {
				return fmt.Errorf("release %s: %w", line.ProductID, res.Error)
			}
		}
		return nil
	})
}

func fromProduct(p *domain.Product) *ProductModel {
	return &ProductModel{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		SubCategory: p.SubCategory,
		ImageURL:    p.ImageURL,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (m *ProductModel) toDomain() *domain.Product {
	return &domain.Product{
		ID:          m.ID,
		Name:        m.Name,
		Price:       m.Price,
		Stock:       m.Stock,
		Category:    m.Category,
		SubCategory: m.SubCategory,
		ImageURL:    m.ImageURL,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

package application

import (
	"context"

	"github.com/wyfcoding/musicstore/internal/catalog/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
	"github.com/wyfcoding/musicstore/pkg/utils"
)

// CatalogQueryService 商品目录查询服务
type CatalogQueryService struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
	cache      domain.CategoryCache
}

// NewCatalogQueryService 创建商品目录查询服务实例
func NewCatalogQueryService(
	products domain.ProductRepository,
	categories domain.CategoryRepository,
	cache domain.CategoryCache,
) *CatalogQueryService {
	return &CatalogQueryService{
		products:   products,
		categories: categories,
		cache:      cache,
	}
}

// GetProduct 根据ID获取商品信息
func (s *CatalogQueryService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

// ListProducts 按分类/厂商筛选，最新优先
func (s *CatalogQueryService) ListProducts(ctx context.Context, filter domain.ProductFilter, page *utils.Pagination) ([]*domain.Product, *utils.Pagination, error) {
	products, total, err := s.products.List(ctx, filter, page.Offset(), page.Limit())
	if err != nil {
		return nil, nil, err
	}
	return products, page.WithTotal(total), nil
}

// AllProducts 导出用，不分页
func (s *CatalogQueryService) AllProducts(ctx context.Context) ([]*domain.Product, error) {
	products, _, err := s.products.List(ctx, domain.ProductFilter{}, 0, 0)
	return products, err
}

// ListCategories 先读缓存，未命中时回源并回填
func (s *CatalogQueryService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	if cached, ok, err := s.cache.Get(ctx); err != nil {
		logger.Warn(ctx, "category cache read failed", "error", err)
	} else if ok {
		return cached, nil
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, categories); err != nil {
		logger.Warn(ctx, "category cache write failed", "error", err)
	}
	return categories, nil
}

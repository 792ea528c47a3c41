package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/musicstore/internal/catalog/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
)

// CreateProductCommand 创建商品命令
type CreateProductCommand struct {
	Name        string
	Description string
	Price       int64
	Stock       int
	Category    string
	SubCategory string
	ImageURL    string
}

// UpdateProductCommand 更新商品命令
type UpdateProductCommand struct {
	ID          string
	Name        string
	Description string
	Price       int64
	Stock       int
	Category    string
	SubCategory string
	ImageURL    string
}

// SaveCategoryCommand 新建或覆盖分类
type SaveCategoryCommand struct {
	Name          string
	SubCategories []string
}

// CatalogCommandService 商品目录命令服务
type CatalogCommandService struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
	cache      domain.CategoryCache
	publisher  domain.EventPublisher
}

// NewCatalogCommandService 创建商品目录命令服务实例
func NewCatalogCommandService(
	products domain.ProductRepository,
	categories domain.CategoryRepository,
	cache domain.CategoryCache,
	publisher domain.EventPublisher,
) *CatalogCommandService {
	return &CatalogCommandService{
		products:   products,
		categories: categories,
		cache:      cache,
		publisher:  publisher,
	}
}

// CreateProduct 处理创建商品
func (s *CatalogCommandService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	now := time.Now()
	product := &domain.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(cmd.Name),
		Description: cmd.Description,
		Price:       cmd.Price,
		Stock:       cmd.Stock,
		Category:    cmd.Category,
		SubCategory: cmd.SubCategory,
		ImageURL:    cmd.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}

	s.publish(ctx, domain.TopicProductCreated, product.ID, domain.ProductCreatedEvent{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Stock:     product.Stock,
		Category:  product.Category,
		Timestamp: now,
	})

	return product, nil
}

// UpdateProduct 处理更新商品
func (s *CatalogCommandService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	oldStock := product.Stock

	product.Name = strings.TrimSpace(cmd.Name)
	product.Description = cmd.Description
	product.Price = cmd.Price
	product.Stock = cmd.Stock
	product.Category = cmd.Category
	product.SubCategory = cmd.SubCategory
	product.ImageURL = cmd.ImageURL
	product.UpdatedAt = time.Now()
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}

	s.publish(ctx, domain.TopicProductUpdated, product.ID, domain.ProductUpdatedEvent{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Stock:     product.Stock,
		Category:  product.Category,
		Timestamp: product.UpdatedAt,
	})

	// 如果库存发生变化，发布库存变更事件
	if oldStock != product.Stock {
		s.publish(ctx, domain.TopicProductStockChanged, product.ID, domain.ProductStockChangedEvent{
			ProductID: product.ID,
			OldStock:  oldStock,
			NewStock:  product.Stock,
			Timestamp: product.UpdatedAt,
		})
	}

	return product, nil
}

// DeleteProduct 删除商品
func (s *CatalogCommandService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, domain.TopicProductDeleted, id, domain.ProductDeletedEvent{ProductID: id, Timestamp: time.Now()})
	return nil
}

// SaveCategory 新建或覆盖分类，并使分类缓存失效
func (s *CatalogCommandService) SaveCategory(ctx context.Context, cmd SaveCategoryCommand) (*domain.Category, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, &domain.ValidationError{Field: "category", Reason: "required"}
	}

	subs := make([]string, 0, len(cmd.SubCategories))
	for _, sc := range cmd.SubCategories {
		if sc = strings.TrimSpace(sc); sc != "" {
			subs = append(subs, sc)
		}
	}

	category := &domain.Category{Name: name, SubCategories: subs}
	if err := s.categories.Save(ctx, category); err != nil {
		return nil, fmt.Errorf("save category: %w", err)
	}
	s.invalidateCategories(ctx)
	return category, nil
}

// DeleteCategory 删除分类
func (s *CatalogCommandService) DeleteCategory(ctx context.Context, name string) error {
	if err := s.categories.Delete(ctx, name); err != nil {
		return err
	}
	s.invalidateCategories(ctx)
	return nil
}

func (s *CatalogCommandService) invalidateCategories(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Warn(ctx, "category cache invalidation failed", "error", err)
	}
}

// publish 事件发布失败不影响主流程
func (s *CatalogCommandService) publish(ctx context.Context, topic, key string, event any) {
	if err := s.publisher.Publish(ctx, topic, key, event); err != nil {
		logger.Warn(ctx, "publish event failed", "topic", topic, "key", key, "error", err)
	}
}

package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/musicstore/internal/catalog/application"
	"github.com/wyfcoding/musicstore/internal/catalog/domain"
	"github.com/wyfcoding/musicstore/internal/catalog/infrastructure/export"
	"github.com/wyfcoding/musicstore/pkg/logger"
	"github.com/wyfcoding/musicstore/pkg/utils"
	"github.com/wyfcoding/pkg/response"
)

// CatalogHandler HTTP 处理器
// 负责商品浏览与后台商品/分类管理
type CatalogHandler struct {
	cmd   *application.CatalogCommandService
	query *application.CatalogQueryService
}

// NewCatalogHandler 创建 HTTP 处理器实例
func NewCatalogHandler(cmd *application.CatalogCommandService, query *application.CatalogQueryService) *CatalogHandler {
	return &CatalogHandler{cmd: cmd, query: query}
}

// RegisterRoutes 注册公开路由
func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/products", h.ListProducts)
	router.GET("/products/:id", h.GetProduct)
	router.GET("/categories", h.ListCategories)
}

// RegisterAdminRoutes 注册后台路由，调用方负责挂载管理员校验
func (h *CatalogHandler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/products/export", h.ExportProducts)
	admin.POST("/products", h.CreateProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)
	admin.PUT("/categories/:name", h.SaveCategory)
	admin.DELETE("/categories/:name", h.DeleteCategory)
}

// ProductRequest 创建/更新商品请求
type ProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Price       int64  `json:"price" binding:"required"`
	Stock       int    `json:"stock"`
	Category    string `json:"category" binding:"required"`
	SubCategory string `json:"subCategory"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
}

// CategoryRequest 分类请求
type CategoryRequest struct {
	SubCategories []string `json:"subCategories"`
}

// ListProducts 商品列表
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	filter := domain.ProductFilter{
		Category:    c.Query("category"),
		SubCategory: c.Query("subCategory"),
	}
	page := utils.ParsePagination(c.Query("page"), c.Query("page_size"))

	products, pagination, err := h.query.ListProducts(c.Request.Context(), filter, page)
	if err != nil {
		h.fail(c, err, "Failed to list products")
		return
	}
	response.Success(c, gin.H{"items": products, "pagination": pagination})
}

// GetProduct 商品详情
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.query.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to get product")
		return
	}
	response.Success(c, product)
}

// ListCategories 分类树
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.query.ListCategories(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to list categories")
		return
	}
	response.Success(c, categories)
}

// CreateProduct 新增商品
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	product, err := h.cmd.CreateProduct(c.Request.Context(), application.CreateProductCommand{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.fail(c, err, "Failed to create product")
		return
	}
	response.SuccessWithStatus(c, http.StatusCreated, "created", product)
}

// UpdateProduct 更新商品
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	product, err := h.cmd.UpdateProduct(c.Request.Context(), application.UpdateProductCommand{
		ID:          c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.fail(c, err, "Failed to update product")
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := h.cmd.DeleteProduct(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Failed to delete product")
		return
	}
	response.Success(c, gin.H{"id": id})
}

// SaveCategory 新建或覆盖分类
func (h *CatalogHandler) SaveCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	category, err := h.cmd.SaveCategory(c.Request.Context(), application.SaveCategoryCommand{
		Name:          c.Param("name"),
		SubCategories: req.SubCategories,
	})
	if err != nil {
		h.fail(c, err, "Failed to save category")
		return
	}
	response.Success(c, category)
}

// DeleteCategory 删除分类
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	name := c.Param("name")
	if err := h.cmd.DeleteCategory(c.Request.Context(), name); err != nil {
		h.fail(c, err, "Failed to delete category")
		return
	}
	response.Success(c, gin.H{"name": name})
}

// ExportProducts 导出商品 Excel
func (h *CatalogHandler) ExportProducts(c *gin.Context) {
	products, err := h.query.AllProducts(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to fetch products")
		return
	}

	c.Header("Content-Disposition", "attachment; filename=products.xlsx")
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Expires", "0")

	if err := export.WriteProducts(c.Writer, products); err != nil {
		logger.Error(c.Request.Context(), "Failed to write Excel file", "error", err)
		c.Status(http.StatusInternalServerError)
	}
}

func (h *CatalogHandler) fail(c *gin.Context, err error, msg string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithStatus(c, http.StatusBadRequest, verr.Error(), "")
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrCategoryNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	default:
		logger.Error(c.Request.Context(), msg, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, msg, "")
	}
}

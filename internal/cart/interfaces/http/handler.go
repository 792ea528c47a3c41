package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/musicstore/internal/cart/application"
	"github.com/wyfcoding/musicstore/internal/cart/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
	"github.com/wyfcoding/pkg/response"
)

// ErrProductUnavailable 加入购物车的商品不存在
var ErrProductUnavailable = errors.New("product unavailable")

// ProductLookup 按商品 ID 取得购物车行所需的名称、单价与图片
type ProductLookup func(ctx context.Context, id string) (domain.CartItem, error)

// CartHandler HTTP 处理器
type CartHandler struct {
	sessions *Sessions
	lookup   ProductLookup
}

// NewCartHandler 创建 HTTP 处理器实例
func NewCartHandler(sessions *Sessions, lookup ProductLookup) *CartHandler {
	return &CartHandler{sessions: sessions, lookup: lookup}
}

// RegisterRoutes 注册路由
func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/cart")
	{
		api.GET("", h.GetCart)
		api.DELETE("", h.ClearCart)
		api.POST("/items", h.AddItem)
		api.PUT("/items/:id", h.SetQuantity)
		api.DELETE("/items/:id", h.RemoveItem)
	}
}

// AddItemRequest 加入购物车请求
type AddItemRequest struct {
	ID       string `json:"id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// SetQuantityRequest 修改数量请求
type SetQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// CartView 购物车响应
type CartView struct {
	Items []domain.CartItem `json:"items"`
	Total int64             `json:"total"`
}

// GetCart 查看购物车
func (h *CartHandler) GetCart(c *gin.Context) {
	svc, ok := h.open(c)
	if !ok {
		return
	}
	response.Success(c, view(svc))
}

// AddItem 加入商品
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	item, err := h.lookup(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, ErrProductUnavailable) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logger.Error(c.Request.Context(), "Failed to look up product", "product_id", req.ID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "Failed to look up product", "")
		return
	}
	item.Quantity = req.Quantity

	svc, ok := h.open(c)
	if !ok {
		return
	}
	if err := svc.Add(c.Request.Context(), item); err != nil {
		h.mirrorFailed(c, err)
		return
	}
	response.Success(c, view(svc))
}

// SetQuantity 修改数量，小于 1 在此拒绝
func (h *CartHandler) SetQuantity(c *gin.Context) {
	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "quantity must be at least 1", err.Error())
		return
	}

	svc, ok := h.open(c)
	if !ok {
		return
	}
	if err := svc.SetQuantity(c.Request.Context(), c.Param("id"), req.Quantity); err != nil {
		h.mirrorFailed(c, err)
		return
	}
	response.Success(c, view(svc))
}

// RemoveItem 删除行
func (h *CartHandler) RemoveItem(c *gin.Context) {
	svc, ok := h.open(c)
	if !ok {
		return
	}
	if err := svc.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.mirrorFailed(c, err)
		return
	}
	response.Success(c, view(svc))
}

// ClearCart 清空购物车
func (h *CartHandler) ClearCart(c *gin.Context) {
	svc, ok := h.open(c)
	if !ok {
		return
	}
	if err := svc.Clear(c.Request.Context()); err != nil {
		h.mirrorFailed(c, err)
		return
	}
	response.Success(c, view(svc))
}

func (h *CartHandler) open(c *gin.Context) (*application.CartService, bool) {
	svc, err := h.sessions.Open(c)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to open cart", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "Failed to open cart", "")
		return nil, false
	}
	return svc, true
}

func (h *CartHandler) mirrorFailed(c *gin.Context, err error) {
	logger.Error(c.Request.Context(), "Failed to update cart", "error", err)
	response.ErrorWithStatus(c, http.StatusInternalServerError, "Failed to update cart", "")
}

func view(svc *application.CartService) CartView {
	items := svc.Items()
	if items == nil {
		items = []domain.CartItem{}
	}
	return CartView{Items: items, Total: svc.Total()}
}

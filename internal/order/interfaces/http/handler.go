package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	admindomain "github.com/wyfcoding/musicstore/internal/admin/domain"
	authdomain "github.com/wyfcoding/musicstore/internal/auth/domain"
	authhttp "github.com/wyfcoding/musicstore/internal/auth/interfaces/http"
	"github.com/wyfcoding/musicstore/internal/order/application"
	"github.com/wyfcoding/musicstore/internal/order/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
	"github.com/wyfcoding/musicstore/pkg/utils"
	"github.com/wyfcoding/pkg/response"
)

// AdminChecker 判断当前身份是否为管理员
type AdminChecker interface {
	Authorize(ctx context.Context, identity *authdomain.Identity) admindomain.Decision
}

// OrderHandler HTTP 处理器
type OrderHandler struct {
	cmd   *application.OrderCommandService
	query *application.OrderQueryService
	admin AdminChecker
}

// NewOrderHandler 创建 HTTP 处理器实例
func NewOrderHandler(cmd *application.OrderCommandService, query *application.OrderQueryService, admin AdminChecker) *OrderHandler {
	return &OrderHandler{cmd: cmd, query: query, admin: admin}
}

// RegisterRoutes 注册需要登录的路由
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/orders", authhttp.RequireIdentity())
	{
		api.GET("", h.ListMyOrders)
		api.GET("/:id", h.GetOrder)
	}
}

// RegisterAdminRoutes 注册后台路由
func (h *OrderHandler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/orders", h.ListOrders)
	admin.PUT("/orders/:id/status", h.UpdateStatus)
}

// UpdateStatusRequest 修改状态请求，空串表示未设置
type UpdateStatusRequest struct {
	Status *string `json:"status" binding:"required"`
}

// ListMyOrders 我的订单
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	orders, err := h.query.ListMyOrders(c.Request.Context(), authhttp.UserID(c))
	if err != nil {
		h.fail(c, err, "Failed to list orders")
		return
	}
	response.Success(c, orders)
}

// GetOrder 订单详情
func (h *OrderHandler) GetOrder(c *gin.Context) {
	identity, _ := authhttp.FromContext(c)
	isAdmin := h.admin.Authorize(c.Request.Context(), identity).Allow

	order, err := h.query.GetOrder(c.Request.Context(), c.Param("id"), identity.UserID, isAdmin)
	if err != nil {
		h.fail(c, err, "Failed to get order")
		return
	}
	response.Success(c, order)
}

// ListOrders 后台订单列表
func (h *OrderHandler) ListOrders(c *gin.Context) {
	page := utils.ParsePagination(c.Query("page"), c.Query("page_size"))
	orders, pagination, err := h.query.ListOrders(c.Request.Context(), page)
	if err != nil {
		h.fail(c, err, "Failed to list orders")
		return
	}
	response.Success(c, gin.H{"items": orders, "pagination": pagination})
}

// UpdateStatus 后台修改订单状态
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	order, err := h.cmd.UpdateStatus(c.Request.Context(), c.Param("id"), *req.Status)
	if err != nil {
		h.fail(c, err, "Failed to update order status")
		return
	}
	response.Success(c, order)
}

func (h *OrderHandler) fail(c *gin.Context, err error, msg string) {
	var invalid *domain.InvalidStatusError
	switch {
	case errors.As(err, &invalid):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, domain.ErrOrderNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrForbidden):
		response.ErrorWithStatus(c, http.StatusForbidden, err.Error(), "")
	default:
		logger.Error(c.Request.Context(), msg, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, msg, "")
	}
}

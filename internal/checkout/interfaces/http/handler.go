package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authhttp "github.com/wyfcoding/musicstore/internal/auth/interfaces/http"
	cartapp "github.com/wyfcoding/musicstore/internal/cart/application"
	"github.com/wyfcoding/musicstore/internal/checkout/application"
	"github.com/wyfcoding/musicstore/internal/checkout/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
	"github.com/wyfcoding/pkg/response"
)

// CartOpener 打开当前请求的购物车
type CartOpener interface {
	Open(c *gin.Context) (*cartapp.CartService, error)
}

// CheckoutHandler HTTP 处理器
type CheckoutHandler struct {
	orchestrator *application.Orchestrator
	carts        CartOpener
}

// NewCheckoutHandler 创建 HTTP 处理器实例
func NewCheckoutHandler(orchestrator *application.Orchestrator, carts CartOpener) *CheckoutHandler {
	return &CheckoutHandler{orchestrator: orchestrator, carts: carts}
}

// RegisterRoutes 注册路由
func (h *CheckoutHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/checkout", h.Checkout)
}

// CheckoutRequest 结算请求，金额始终由服务端计算
type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method"`
	Confirmed     bool   `json:"confirmed"`
}

// Checkout 提交订单
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	cart, err := h.carts.Open(c)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to open cart", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "Failed to load cart", "")
		return
	}

	result, err := h.orchestrator.Checkout(c.Request.Context(), application.Command{
		UserID:        authhttp.UserID(c),
		PaymentMethod: req.PaymentMethod,
		Confirmed:     req.Confirmed,
		Cart:          cartView{svc: cart},
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithStatus(c, http.StatusCreated, "created", result)
}

var statusByKind = map[domain.FailureKind]int{
	domain.KindValidation:        http.StatusBadRequest,
	domain.KindAuth:              http.StatusUnauthorized,
	domain.KindPaymentDeclined:   http.StatusPaymentRequired,
	domain.KindInsufficientStock: http.StatusConflict,
	domain.KindInProgress:        http.StatusConflict,
	domain.KindPersistence:       http.StatusInternalServerError,
	domain.KindUnknown:           http.StatusInternalServerError,
}

func fail(c *gin.Context, err error) {
	var f *domain.Failure
	if !errors.As(err, &f) {
		logger.Error(c.Request.Context(), "unexpected checkout error", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	status, ok := statusByKind[f.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	msg := f.Message
	if status == http.StatusInternalServerError {
		msg = "checkout could not be completed"
	}
	c.AbortWithStatusJSON(status, gin.H{
		"code":       status,
		"error":      msg,
		"kind":       f.Kind,
		"state":      f.State,
		"request_id": logger.RequestID(c.Request.Context()),
	})
}

// cartView 把购物车服务适配为结算读取的行快照
type cartView struct {
	svc *cartapp.CartService
}

func (v cartView) Items() []domain.LineItem {
	items := v.svc.Items()
	out := make([]domain.LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, domain.LineItem{
			ProductID: it.ID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURL,
		})
	}
	return out
}

func (v cartView) Clear(ctx context.Context) error {
	return v.svc.Clear(ctx)
}

package http

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/musicstore/internal/payment/application"
	"github.com/wyfcoding/musicstore/internal/payment/domain"
	"github.com/wyfcoding/musicstore/internal/payment/infrastructure/remote"
	"github.com/wyfcoding/musicstore/pkg/logger"
)

// PaymentHandler 支付接口，响应体与前端约定保持一致，不使用统一信封
type PaymentHandler struct {
	svc         *application.PaymentService
	refundToken string
}

// NewPaymentHandler 创建 HTTP 处理器实例，refundToken 为空时不开放退款接口
func NewPaymentHandler(svc *application.PaymentService, refundToken string) *PaymentHandler {
	return &PaymentHandler{svc: svc, refundToken: refundToken}
}

// RegisterRoutes 注册路由
func (h *PaymentHandler) RegisterRoutes(r gin.IRouter) {
	r.Any("/api/payment", h.Payment)
	if h.refundToken != "" {
		r.Any("/api/payment/refund", requireInternalToken(h.refundToken), h.Refund)
	}
}

// requireInternalToken 退款只接受携带内部令牌的服务间调用
func requireInternalToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(remote.InternalTokenHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			logger.Warn(c.Request.Context(), "Rejected refund without internal token", "client_ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, remote.ErrorBody{Error: "Unauthorized"})
			return
		}
		c.Next()
	}
}

// PaymentRequest 支付请求
type PaymentRequest struct {
	PaymentMethod string            `json:"payment_method"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

// RefundRequest 退款请求
type RefundRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// Payment 创建并确认付款
func (h *PaymentHandler) Payment(c *gin.Context) {
	if !postOnly(c) {
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PaymentMethod == "" || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, remote.ErrorBody{Error: "Payment method and amount are required"})
		return
	}

	auth, err := h.svc.Authorize(c.Request.Context(), application.AuthorizeCommand{
		PaymentMethod:  req.PaymentMethod,
		Amount:         req.Amount,
		Currency:       req.Currency,
		IdempotencyKey: c.GetHeader(remote.IdempotencyHeader),
		Metadata:       req.Metadata,
	})
	if err != nil {
		var declined *domain.DeclinedError
		switch {
		case errors.As(err, &declined):
			c.JSON(http.StatusBadRequest, remote.ErrorBody{Error: declined.Message, Declined: true, Code: declined.Code})
		case errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, remote.ErrorBody{Error: err.Error()})
		default:
			logger.Error(c.Request.Context(), "Stripe error", "error", err)
			c.JSON(http.StatusInternalServerError, remote.ErrorBody{Error: "Internal Server Error"})
		}
		return
	}

	c.JSON(http.StatusOK, auth)
}

// Refund 全额退款
func (h *PaymentHandler) Refund(c *gin.Context) {
	if !postOnly(c) {
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PaymentIntentID == "" {
		c.JSON(http.StatusBadRequest, remote.ErrorBody{Error: "payment_intent_id is required"})
		return
	}
	if err := h.svc.Refund(c.Request.Context(), req.PaymentIntentID, c.GetHeader(remote.IdempotencyHeader)); err != nil {
		logger.Error(c.Request.Context(), "Refund failed", "payment_intent_id", req.PaymentIntentID, "error", err)
		c.JSON(http.StatusInternalServerError, remote.ErrorBody{Error: "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"refunded": true, "paymentIntentId": req.PaymentIntentID})
}

func postOnly(c *gin.Context) bool {
	if c.Request.Method == http.MethodPost {
		return true
	}
	c.Header("Allow", http.MethodPost)
	c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
	c.Abort()
	return false
}

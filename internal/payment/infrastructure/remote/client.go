// Package remote 通过支付服务的 HTTP 接口完成支付
package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/wyfcoding/musicstore/internal/payment/domain"
)

const (
	// IdempotencyHeader 幂等键请求头
	IdempotencyHeader = "Idempotency-Key"
	// InternalTokenHeader 服务间调用令牌请求头
	InternalTokenHeader = "X-Internal-Token"
)

type authorizeBody struct {
	PaymentMethod string            `json:"payment_method"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type refundBody struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// ErrorBody 支付服务的错误响应
type ErrorBody struct {
	Error    string `json:"error"`
	Declined bool   `json:"declined,omitempty"`
	Code     string `json:"code,omitempty"`
}

// Client 远程支付网关
type Client struct {
	http *resty.Client
}

// NewClient 创建客户端，baseURL 形如 http://payment:8081，token 用于退款等内部接口
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader(InternalTokenHeader, token).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// 仅对网络错误与 5xx 重试
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &Client{http: c}
}

// Authorize 请求支付服务创建并确认付款
func (c *Client) Authorize(ctx context.Context, req domain.AuthorizeRequest) (*domain.Authorization, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out domain.Authorization
	var failure ErrorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(IdempotencyHeader, req.IdempotencyKey).
		SetBody(authorizeBody{
			PaymentMethod: req.PaymentMethod,
			Amount:        req.Amount,
			Currency:      req.Currency,
			Metadata:      req.Metadata,
		}).
		SetResult(&out).
		SetError(&failure).
		Post("/api/payment")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if resp.IsError() {
		if failure.Declined {
			return nil, &domain.DeclinedError{Code: failure.Code, Message: failure.Error}
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: payment service returned %d: %s", domain.ErrGatewayUnavailable, resp.StatusCode(), failure.Error)
		}
		return nil, fmt.Errorf("payment service returned %d: %s", resp.StatusCode(), failure.Error)
	}
	return &out, nil
}

// Refund 请求支付服务退款
func (c *Client) Refund(ctx context.Context, intentID, idempotencyKey string) error {
	var failure ErrorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(IdempotencyHeader, idempotencyKey).
		SetBody(refundBody{PaymentIntentID: intentID}).
		SetError(&failure).
		Post("/api/payment/refund")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("refund returned %d: %s", resp.StatusCode(), failure.Error)
	}
	return nil
}

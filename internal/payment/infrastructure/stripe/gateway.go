// Package stripe 基于 Stripe PaymentIntents 的支付网关
package stripe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/wyfcoding/musicstore/internal/payment/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
)

type intentCreator interface {
	New(params *stripeapi.PaymentIntentParams) (*stripeapi.PaymentIntent, error)
}

type refundCreator interface {
	New(params *stripeapi.RefundParams) (*stripeapi.Refund, error)
}

// Gateway Stripe 支付网关，外层包一层熔断
type Gateway struct {
	intents   intentCreator
	refunds   refundCreator
	breaker   *gobreaker.CircuitBreaker
	returnURL string
}

// NewGateway 使用密钥创建网关，returnURL 为空时禁止需要跳转的支付方式
func NewGateway(secretKey, returnURL string) *Gateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return newGateway(sc.PaymentIntents, sc.Refunds, returnURL)
}

func newGateway(intents intentCreator, refunds refundCreator, returnURL string) *Gateway {
	return &Gateway{
		intents:   intents,
		refunds:   refunds,
		returnURL: returnURL,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "stripe",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// 拒付属于正常业务结果
			IsSuccessful: func(err error) bool {
				return err == nil || domain.IsDeclined(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn(context.Background(), "circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// Authorize 创建并立即确认 PaymentIntent
func (g *Gateway) Authorize(ctx context.Context, req domain.AuthorizeRequest) (*domain.Authorization, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	params := &stripeapi.PaymentIntentParams{
		Amount:        stripeapi.Int64(req.Amount),
		Currency:      stripeapi.String(req.Currency),
		PaymentMethod: stripeapi.String(req.PaymentMethod),
		Confirm:       stripeapi.Bool(true),
		AutomaticPaymentMethods: &stripeapi.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripeapi.Bool(true),
		},
	}
	if g.returnURL != "" {
		params.ReturnURL = stripeapi.String(g.returnURL)
	} else {
		params.AutomaticPaymentMethods.AllowRedirects = stripeapi.String("never")
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx

	start := time.Now()
	res, err := g.breaker.Execute(func() (interface{}, error) {
		pi, err := g.intents.New(params)
		if err != nil {
			return nil, translate(err)
		}
		return pi, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
		}
		return nil, err
	}

	pi := res.(*stripeapi.PaymentIntent)
	logger.Info(ctx, "payment intent confirmed",
		"payment_intent_id", pi.ID,
		"status", string(pi.Status),
		"amount", req.Amount,
		"duration_ms", time.Since(start).Milliseconds())
	return &domain.Authorization{
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

// Refund 对 PaymentIntent 全额退款
func (g *Gateway) Refund(ctx context.Context, intentID, idempotencyKey string) error {
	params := &stripeapi.RefundParams{PaymentIntent: stripeapi.String(intentID)}
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	params.Context = ctx

	_, err := g.breaker.Execute(func() (interface{}, error) {
		return g.refunds.New(params)
	})
	if err != nil {
		return fmt.Errorf("failed to refund %s: %w", intentID, err)
	}
	logger.Info(ctx, "payment refunded", "payment_intent_id", intentID)
	return nil
}

// translate 卡片类错误转换为拒付，Stripe 服务端错误视为网关不可用
func translate(err error) error {
	var se *stripeapi.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Type {
	case stripeapi.ErrorTypeCard:
		code := string(se.DeclineCode)
		if code == "" {
			code = string(se.Code)
		}
		return &domain.DeclinedError{Code: code, Message: se.Msg}
	case stripeapi.ErrorTypeAPI:
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	return err
}

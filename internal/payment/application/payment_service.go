package application

import (
	"context"
	"time"

	"github.com/wyfcoding/musicstore/internal/payment/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
)

// Recorder 支付耗时指标
type Recorder interface {
	RecordPayment(outcome string, duration time.Duration)
}

// AuthorizeCommand 授权命令
type AuthorizeCommand struct {
	PaymentMethod  string
	Amount         int64
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

// PaymentService 支付应用服务
type PaymentService struct {
	gateway  domain.Gateway
	currency string
	recorder Recorder
}

// NewPaymentService 创建支付应用服务，currency 为请求未指定币种时的默认值
func NewPaymentService(gateway domain.Gateway, currency string, recorder Recorder) *PaymentService {
	return &PaymentService{gateway: gateway, currency: currency, recorder: recorder}
}

// Authorize 授权并确认付款
func (s *PaymentService) Authorize(ctx context.Context, cmd AuthorizeCommand) (*domain.Authorization, error) {
	currency := cmd.Currency
	if currency == "" {
		currency = s.currency
	}
	req := domain.AuthorizeRequest{
		Amount:         cmd.Amount,
		Currency:       currency,
		PaymentMethod:  cmd.PaymentMethod,
		IdempotencyKey: cmd.IdempotencyKey,
		Metadata:       cmd.Metadata,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	auth, err := s.gateway.Authorize(ctx, req)
	s.record(outcome(auth, err), time.Since(start))
	if err != nil {
		if !domain.IsDeclined(err) {
			logger.Error(ctx, "payment authorization failed", "amount", cmd.Amount, "error", err)
		}
		return nil, err
	}
	return auth, nil
}

// Refund 退款
func (s *PaymentService) Refund(ctx context.Context, intentID, idempotencyKey string) error {
	if intentID == "" {
		return domain.ErrInvalidRequest
	}
	start := time.Now()
	err := s.gateway.Refund(ctx, intentID, idempotencyKey)
	if err != nil {
		s.record("refund_error", time.Since(start))
		return err
	}
	s.record("refunded", time.Since(start))
	return nil
}

func (s *PaymentService) record(outcome string, d time.Duration) {
	if s.recorder != nil {
		s.recorder.RecordPayment(outcome, d)
	}
}

func outcome(auth *domain.Authorization, err error) string {
	switch {
	case domain.IsDeclined(err):
		return "declined"
	case err != nil:
		return "error"
	case auth.Succeeded():
		return "succeeded"
	default:
		return auth.Status
	}
}

// Package domain 定义支付网关端口与金额换算
package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRequest     = errors.New("payment method and amount are required")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// AuthorizeRequest 授权并确认一笔付款，Amount 为最小货币单位
type AuthorizeRequest struct {
	Amount         int64
	Currency       string
	PaymentMethod  string
	IdempotencyKey string
	Metadata       map[string]string
}

// Validate 校验必填项
func (r AuthorizeRequest) Validate() error {
	if strings.TrimSpace(r.PaymentMethod) == "" || r.Amount <= 0 {
		return ErrInvalidRequest
	}
	return nil
}

// Authorization 授权结果
type Authorization struct {
	IntentID     string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
	Status       string `json:"status"`
}

// StatusSucceeded 付款已完成
const StatusSucceeded = "succeeded"

// Succeeded 资金是否已确认
func (a *Authorization) Succeeded() bool {
	return a != nil && a.Status == StatusSucceeded
}

// Gateway 支付处理方
type Gateway interface {
	// Authorize 被拒付时返回 *DeclinedError
	Authorize(ctx context.Context, req AuthorizeRequest) (*Authorization, error)
	// Refund 全额退款，同一幂等键重复调用无副作用
	Refund(ctx context.Context, intentID, idempotencyKey string) error
}

// DeclinedError 付款被拒
type DeclinedError struct {
	Code    string
	Message string
}

func (e *DeclinedError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("payment declined: %s", e.Message)
	}
	return fmt.Sprintf("payment declined (%s): %s", e.Code, e.Message)
}

// IsDeclined 判断是否为拒付
func IsDeclined(err error) bool {
	var d *DeclinedError
	return errors.As(err, &d)
}

// IsUnavailable 判断是否为网关不可达：熔断、网络错误或超时
func IsUnavailable(err error) bool {
	if errors.Is(err, ErrGatewayUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true, "krw": true,
	"mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true, "vuv": true, "xaf": true,
	"xof": true, "xpf": true,
}

var threeDecimal = map[string]bool{
	"bhd": true, "jod": true, "kwd": true, "omr": true, "tnd": true,
}

// SubunitExponent 货币最小单位的小数位数
func SubunitExponent(currency string) int32 {
	c := strings.ToLower(currency)
	switch {
	case zeroDecimal[c]:
		return 0
	case threeDecimal[c]:
		return 3
	default:
		return 2
	}
}

// ToMinorUnits 将以主单位计价的金额换算为最小单位
func ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	minor := amount.Shift(SubunitExponent(currency))
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %s has more precision than %s allows", amount, currency)
	}
	if minor.Sign() <= 0 {
		return 0, fmt.Errorf("amount must be positive: %s", amount)
	}
	return minor.IntPart(), nil
}

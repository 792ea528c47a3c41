package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     int64
		wantErr  bool
	}{
		{"2000", "jpy", 2000, false},
		{"2000", "JPY", 2000, false},
		{"12.34", "usd", 1234, false},
		{"20", "usd", 2000, false},
		{"1.234", "kwd", 1234, false},
		{"1.234", "usd", 0, true},
		{"0.5", "jpy", 0, true},
		{"0", "usd", 0, true},
		{"-1", "usd", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.amount+tt.currency, func(t *testing.T) {
			got, err := ToMinorUnits(decimal.RequireFromString(tt.amount), tt.currency)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthorizeRequestValidate(t *testing.T) {
	assert.ErrorIs(t, AuthorizeRequest{Amount: 100}.Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, AuthorizeRequest{PaymentMethod: "pm_1"}.Validate(), ErrInvalidRequest)
	assert.NoError(t, AuthorizeRequest{PaymentMethod: "pm_1", Amount: 100}.Validate())
}

func TestIsDeclined(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &DeclinedError{Code: "insufficient_funds", Message: "Your card has insufficient funds."})
	assert.True(t, IsDeclined(err))
	assert.Contains(t, err.Error(), "insufficient_funds")
	assert.False(t, IsDeclined(errors.New("timeout")))
	assert.False(t, (*Authorization)(nil).Succeeded())
}

func TestIsUnavailable(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	assert.True(t, IsUnavailable(fmt.Errorf("%w: %v", ErrGatewayUnavailable, dial)))
	assert.True(t, IsUnavailable(fmt.Errorf("post: %w", dial)))
	assert.True(t, IsUnavailable(context.DeadlineExceeded))
	assert.False(t, IsUnavailable(&DeclinedError{Code: "card_declined"}))
	assert.False(t, IsUnavailable(errors.New("unexpected response")))
}

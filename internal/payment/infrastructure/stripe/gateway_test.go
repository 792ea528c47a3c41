package stripe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/wyfcoding/musicstore/internal/payment/domain"
)

type mockIntents struct{ mock.Mock }

func (m *mockIntents) New(params *stripeapi.PaymentIntentParams) (*stripeapi.PaymentIntent, error) {
	args := m.Called(params)
	pi, _ := args.Get(0).(*stripeapi.PaymentIntent)
	return pi, args.Error(1)
}

type mockRefunds struct{ mock.Mock }

func (m *mockRefunds) New(params *stripeapi.RefundParams) (*stripeapi.Refund, error) {
	args := m.Called(params)
	r, _ := args.Get(0).(*stripeapi.Refund)
	return r, args.Error(1)
}

func request() domain.AuthorizeRequest {
	return domain.AuthorizeRequest{
		Amount:         2000,
		Currency:       "jpy",
		PaymentMethod:  "pm_card_visa",
		IdempotencyKey: "checkout-1",
	}
}

func TestAuthorizeSucceeded(t *testing.T) {
	intents := new(mockIntents)
	intents.On("New", mock.MatchedBy(func(p *stripeapi.PaymentIntentParams) bool {
		return *p.Amount == 2000 &&
			*p.Currency == "jpy" &&
			*p.Confirm &&
			*p.IdempotencyKey == "checkout-1" &&
			*p.AutomaticPaymentMethods.AllowRedirects == "never" &&
			p.Context != nil
	})).Return(&stripeapi.PaymentIntent{
		ID:           "pi_1",
		ClientSecret: "pi_1_secret",
		Status:       stripeapi.PaymentIntentStatusSucceeded,
	}, nil).Once()

	gw := newGateway(intents, new(mockRefunds), "")
	auth, err := gw.Authorize(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "pi_1", auth.IntentID)
	assert.Equal(t, "pi_1_secret", auth.ClientSecret)
	assert.True(t, auth.Succeeded())
	intents.AssertExpectations(t)
}

func TestAuthorizeWithReturnURL(t *testing.T) {
	intents := new(mockIntents)
	intents.On("New", mock.MatchedBy(func(p *stripeapi.PaymentIntentParams) bool {
		return p.ReturnURL != nil && *p.ReturnURL == "https://shop.example/confirmation" &&
			p.AutomaticPaymentMethods.AllowRedirects == nil
	})).Return(&stripeapi.PaymentIntent{ID: "pi_2", Status: stripeapi.PaymentIntentStatusRequiresAction}, nil).Once()

	gw := newGateway(intents, new(mockRefunds), "https://shop.example/confirmation")
	auth, err := gw.Authorize(context.Background(), request())
	require.NoError(t, err)
	assert.False(t, auth.Succeeded())
}

func TestAuthorizeCardErrorIsDecline(t *testing.T) {
	intents := new(mockIntents)
	intents.On("New", mock.Anything).Return(nil, &stripeapi.Error{
		Type:        stripeapi.ErrorTypeCard,
		Code:        stripeapi.ErrorCodeCardDeclined,
		DeclineCode: stripeapi.DeclineCodeInsufficientFunds,
		Msg:         "Your card has insufficient funds.",
	})

	gw := newGateway(intents, new(mockRefunds), "")
	_, err := gw.Authorize(context.Background(), request())

	var declined *domain.DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, "insufficient_funds", declined.Code)
	assert.Equal(t, "Your card has insufficient funds.", declined.Message)
}

func TestDeclinesDoNotTripBreaker(t *testing.T) {
	intents := new(mockIntents)
	intents.On("New", mock.Anything).Return(nil, &stripeapi.Error{Type: stripeapi.ErrorTypeCard, Msg: "declined"})

	gw := newGateway(intents, new(mockRefunds), "")
	for i := 0; i < 10; i++ {
		_, err := gw.Authorize(context.Background(), request())
		assert.True(t, domain.IsDeclined(err))
	}
	intents.AssertNumberOfCalls(t, "New", 10)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	intents := new(mockIntents)
	intents.On("New", mock.Anything).Return(nil, errors.New("connection reset"))

	gw := newGateway(intents, new(mockRefunds), "")
	for i := 0; i < 5; i++ {
		_, err := gw.Authorize(context.Background(), request())
		require.Error(t, err)
		assert.False(t, domain.IsDeclined(err))
	}

	_, err := gw.Authorize(context.Background(), request())
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	intents.AssertNumberOfCalls(t, "New", 5)
}

func TestStripeServerErrorIsUnavailable(t *testing.T) {
	intents := new(mockIntents)
	intents.On("New", mock.Anything).Return(nil, &stripeapi.Error{Type: stripeapi.ErrorTypeAPI, Msg: "internal"}).Once()

	gw := newGateway(intents, new(mockRefunds), "")
	_, err := gw.Authorize(context.Background(), request())
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	assert.False(t, domain.IsDeclined(err))
}

func TestAuthorizeRejectsInvalidRequest(t *testing.T) {
	gw := newGateway(new(mockIntents), new(mockRefunds), "")
	_, err := gw.Authorize(context.Background(), domain.AuthorizeRequest{Amount: 100})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestRefund(t *testing.T) {
	refunds := new(mockRefunds)
	refunds.On("New", mock.MatchedBy(func(p *stripeapi.RefundParams) bool {
		return *p.PaymentIntent == "pi_1" && *p.IdempotencyKey == "refund-checkout-1"
	})).Return(&stripeapi.Refund{ID: "re_1"}, nil).Once()

	gw := newGateway(new(mockIntents), refunds, "")
	require.NoError(t, gw.Refund(context.Background(), "pi_1", "refund-checkout-1"))
	refunds.AssertExpectations(t)
}

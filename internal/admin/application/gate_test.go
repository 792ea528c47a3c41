package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wyfcoding/musicstore/internal/admin/domain"
	authdomain "github.com/wyfcoding/musicstore/internal/auth/domain"
)

type mockRoleReader struct{ mock.Mock }

func (m *mockRoleReader) GetRole(ctx context.Context, userID string) (*int, error) {
	args := m.Called(ctx, userID)
	role, _ := args.Get(0).(*int)
	return role, args.Error(1)
}

func role(v int) *int { return &v }

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		identity *authdomain.Identity
		role     *int
		err      error
		want     domain.Decision
	}{
		{"anonymous", nil, nil, nil, domain.Denied(domain.RedirectSignIn, domain.ReasonUnauthenticated)},
		{"role absent", &authdomain.Identity{UserID: "u1"}, nil, nil, domain.Denied(domain.RedirectDefault, domain.ReasonNotAdmin)},
		{"customer", &authdomain.Identity{UserID: "u1"}, role(0), nil, domain.Denied(domain.RedirectDefault, domain.ReasonNotAdmin)},
		{"unexpected value", &authdomain.Identity{UserID: "u1"}, role(7), nil, domain.Denied(domain.RedirectDefault, domain.ReasonNotAdmin)},
		{"read failure", &authdomain.Identity{UserID: "u1"}, nil, errors.New("db down"), domain.Denied(domain.RedirectDefault, domain.ReasonRoleUnavailable)},
		{"admin", &authdomain.Identity{UserID: "u1"}, role(1), nil, domain.Allowed()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roles := new(mockRoleReader)
			if tt.identity != nil {
				roles.On("GetRole", mock.Anything, tt.identity.UserID).Return(tt.role, tt.err).Once()
			}
			got := NewGate(roles).Authorize(context.Background(), tt.identity)
			assert.Equal(t, tt.want, got)
			roles.AssertExpectations(t)
		})
	}
}

func TestAuthorizeReadsRoleEveryTime(t *testing.T) {
	roles := new(mockRoleReader)
	roles.On("GetRole", mock.Anything, "u1").Return(role(1), nil).Once()
	roles.On("GetRole", mock.Anything, "u1").Return(role(0), nil).Once()

	gate := NewGate(roles)
	id := &authdomain.Identity{UserID: "u1"}
	assert.True(t, gate.Authorize(context.Background(), id).Allow)
	assert.False(t, gate.Authorize(context.Background(), id).Allow)
	roles.AssertNumberOfCalls(t, "GetRole", 2)
}

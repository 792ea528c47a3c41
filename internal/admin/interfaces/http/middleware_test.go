package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/musicstore/internal/admin/application"
	authdomain "github.com/wyfcoding/musicstore/internal/auth/domain"
	authhttp "github.com/wyfcoding/musicstore/internal/auth/interfaces/http"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type tokenResolver map[string]string

func (r tokenResolver) Resolve(_ context.Context, token string) (*authdomain.Identity, error) {
	if id, ok := r[token]; ok {
		return &authdomain.Identity{UserID: id}, nil
	}
	return nil, nil
}

type roleTable map[string]*int

func (r roleTable) GetRole(_ context.Context, userID string) (*int, error) {
	return r[userID], nil
}

func TestRequireAdmin(t *testing.T) {
	one, zero := 1, 0
	r := gin.New()
	r.Use(authhttp.Authenticate(tokenResolver{"admin-token": "admin", "user-token": "user"}))
	admin := r.Group("/api/v1/admin", RequireAdmin(application.NewGate(roleTable{"admin": &one, "user": &zero})))
	admin.GET("/orders", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		token    string
		status   int
		redirect string
	}{
		{"", http.StatusUnauthorized, "/login"},
		{"user-token", http.StatusForbidden, "/"},
		{"admin-token", http.StatusOK, ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
		if tt.token != "" {
			req.Header.Set("Authorization", "Bearer "+tt.token)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, tt.status, rec.Code, tt.token)
		if tt.redirect != "" {
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.redirect, body["redirect"])
		}
	}
}

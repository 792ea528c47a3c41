package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/wyfcoding/musicstore/internal/auth/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticResolver map[string]*domain.Identity

func (r staticResolver) Resolve(_ context.Context, token string) (*domain.Identity, error) {
	if token == "broken" {
		return nil, errors.New("redis down")
	}
	return r[token], nil
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(Authenticate(staticResolver{"good": {UserID: "u1", Email: "u1@example.com"}}))
	r.GET("/open", func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	r.GET("/private", RequireIdentity(), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	return r
}

func TestAuthenticateFromBearerHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestAuthenticateFromCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireIdentityRejectsAnonymous(t *testing.T) {
	for _, token := range []string{"", "unknown", "broken"} {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		newRouter().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, token)
	}
}

func TestAnonymousPassesOpenRoutes(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer unknown")
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

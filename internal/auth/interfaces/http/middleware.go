package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/musicstore/internal/auth/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
	"github.com/wyfcoding/pkg/response"
)

const (
	// SessionCookie 浏览器端保存令牌的 cookie
	SessionCookie = "session_token"
	identityKey   = "identity"
)

// Resolver 将令牌解析为身份，无效令牌返回 nil, nil
type Resolver interface {
	Resolve(ctx context.Context, token string) (*domain.Identity, error)
}

// Authenticate 每个请求重新解析身份，解析不到时继续以匿名身份处理
func Authenticate(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		identity, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			logger.Warn(c.Request.Context(), "failed to resolve session", "error", err)
		}
		if identity != nil {
			c.Set(identityKey, identity)
			c.Set("user_id", identity.UserID)
		}
		c.Next()
	}
}

// RequireIdentity 未登录时返回 401
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := FromContext(c); !ok {
			response.ErrorWithStatus(c, http.StatusUnauthorized, "authentication required", "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// FromContext 取出当前请求的身份
func FromContext(c *gin.Context) (*domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*domain.Identity)
	return identity, ok && identity != nil
}

// UserID 当前登录用户 ID，未登录返回空串
func UserID(c *gin.Context) string {
	if identity, ok := FromContext(c); ok {
		return identity.UserID
	}
	return ""
}

func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if token, err := c.Cookie(SessionCookie); err == nil {
		return token
	}
	return ""
}

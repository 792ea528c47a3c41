package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/musicstore/internal/cart/application"
	"github.com/wyfcoding/musicstore/internal/cart/domain"
	cartredis "github.com/wyfcoding/musicstore/internal/cart/infrastructure/persistence/redis"
	"github.com/wyfcoding/musicstore/pkg/logger"
)

// anonymousOwnerCookie 未登录时标识服务端购物车归属
const anonymousOwnerCookie = "cart_owner"

// Sessions 为每个请求打开绑定到镜像的购物车
type Sessions struct {
	mirror func(c *gin.Context) domain.Mirror
}

// NewCookieSessions 使用 cookie 作为镜像
func NewCookieSessions(name string, ttl time.Duration, secure bool) *Sessions {
	return &Sessions{mirror: func(c *gin.Context) domain.Mirror {
		return NewCookieMirror(c, name, ttl, secure)
	}}
}

// NewRedisSessions 使用 Redis 作为镜像，owner 返回已登录用户 ID，未登录时回落到匿名 cookie
func NewRedisSessions(client redis.UniversalClient, ttl time.Duration, secure bool, owner func(*gin.Context) string) *Sessions {
	return &Sessions{mirror: func(c *gin.Context) domain.Mirror {
		id := owner(c)
		if id == "" {
			id = anonymousOwner(c, ttl, secure)
		}
		return cartredis.NewMirror(client, id, ttl)
	}}
}

// Open 打开当前请求的购物车
func (s *Sessions) Open(c *gin.Context) (*application.CartService, error) {
	return application.Open(c.Request.Context(), s.mirror(c))
}

func anonymousOwner(c *gin.Context, ttl time.Duration, secure bool) string {
	if id, err := c.Cookie(anonymousOwnerCookie); err == nil && id != "" {
		return "anon:" + id
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(anonymousOwnerCookie, id, int(ttl.Seconds()), "/", "", secure, true)
	return "anon:" + id
}

// CookieMirror 以 cookie 保存 cartItems JSON 数组
type CookieMirror struct {
	c      *gin.Context
	name   string
	ttl    time.Duration
	secure bool
}

// NewCookieMirror 创建绑定到当前请求的 cookie 镜像
func NewCookieMirror(c *gin.Context, name string, ttl time.Duration, secure bool) *CookieMirror {
	if ttl <= 0 {
		ttl = domain.MirrorTTL
	}
	return &CookieMirror{c: c, name: name, ttl: ttl, secure: secure}
}

// Load 读取 cookie，缺失或损坏时返回空
func (m *CookieMirror) Load(ctx context.Context) ([]domain.CartItem, error) {
	raw, err := m.c.Cookie(m.name)
	if err != nil || raw == "" {
		return nil, nil
	}
	var items []domain.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.Warn(ctx, "discarding malformed cart cookie", "error", err)
		return nil, nil
	}
	return items, nil
}

// Store 覆盖写入 cookie，gin 会对值做 URL 编码
func (m *CookieMirror) Store(_ context.Context, items []domain.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	m.c.SetSameSite(http.SameSiteLaxMode)
	m.c.SetCookie(m.name, string(data), int(m.ttl.Seconds()), "/", "", m.secure, true)
	return nil
}

// Remove 使 cookie 立即过期
func (m *CookieMirror) Remove(context.Context) error {
	m.c.SetSameSite(http.SameSiteLaxMode)
	m.c.SetCookie(m.name, "", -1, "/", "", m.secure, true)
	return nil
}

package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/musicstore/internal/admin/domain"
	authdomain "github.com/wyfcoding/musicstore/internal/auth/domain"
	authhttp "github.com/wyfcoding/musicstore/internal/auth/interfaces/http"
	"github.com/wyfcoding/musicstore/pkg/logger"
)

// Authorizer 后台访问判定
type Authorizer interface {
	Authorize(ctx context.Context, identity *authdomain.Identity) domain.Decision
}

// RequireAdmin 所有 /admin 路由共用的守卫
func RequireAdmin(gate Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := authhttp.FromContext(c)
		decision := gate.Authorize(c.Request.Context(), identity)
		if decision.Allow {
			c.Next()
			return
		}

		status := http.StatusForbidden
		if decision.Reason == domain.ReasonUnauthenticated {
			status = http.StatusUnauthorized
		}
		logger.Warn(c.Request.Context(), "admin access denied", "reason", decision.Reason, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(status, gin.H{
			"error":    string(decision.Reason),
			"redirect": decision.Redirect,
		})
	}
}

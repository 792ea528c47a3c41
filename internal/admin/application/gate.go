package application

import (
	"context"

	"github.com/wyfcoding/musicstore/internal/admin/domain"
	authdomain "github.com/wyfcoding/musicstore/internal/auth/domain"
	userdomain "github.com/wyfcoding/musicstore/internal/user/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
)

// Gate 后台访问判定，每次请求都重新读取角色
type Gate struct {
	roles domain.RoleReader
}

// NewGate 创建判定器
func NewGate(roles domain.RoleReader) *Gate {
	return &Gate{roles: roles}
}

// Authorize 未登录跳转登录页，读取失败或非管理员跳转首页
func (g *Gate) Authorize(ctx context.Context, identity *authdomain.Identity) domain.Decision {
	if identity == nil || identity.UserID == "" {
		return domain.Denied(domain.RedirectSignIn, domain.ReasonUnauthenticated)
	}

	role, err := g.roles.GetRole(ctx, identity.UserID)
	if err != nil {
		logger.Error(ctx, "failed to read role for admin gate", "user_id", identity.UserID, "error", err)
		return domain.Denied(domain.RedirectDefault, domain.ReasonRoleUnavailable)
	}
	if !userdomain.IsAdminRole(role) {
		return domain.Denied(domain.RedirectDefault, domain.ReasonNotAdmin)
	}
	return domain.Allowed()
}

// Package domain 定义后台访问判定
package domain

import "context"

// 拒绝后的跳转目标
const (
	RedirectSignIn  = "/login"
	RedirectDefault = "/"
)

// Reason 判定原因
type Reason string

const (
	ReasonAllowed         Reason = "allowed"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonNotAdmin        Reason = "not_admin"
	ReasonRoleUnavailable Reason = "role_unavailable"
)

// Decision 后台访问判定结果，拒绝时 Redirect 非空
type Decision struct {
	Allow    bool
	Redirect string
	Reason   Reason
}

// Allowed 放行
func Allowed() Decision {
	return Decision{Allow: true, Reason: ReasonAllowed}
}

// Denied 拒绝并跳转
func Denied(redirect string, reason Reason) Decision {
	return Decision{Redirect: redirect, Reason: reason}
}

// RoleReader 按用户 ID 读取角色，角色缺失时返回 nil
type RoleReader interface {
	GetRole(ctx context.Context, userID string) (*int, error)
}

package domain

import "context"

// ProfileRepository 用户资料仓储
type ProfileRepository interface {
	// Create 已存在时返回 ErrProfileExists
	Create(ctx context.Context, profile *UserProfile) error
	Update(ctx context.Context, profile *UserProfile) error
	// Get 不存在时返回 ErrProfileNotFound
	Get(ctx context.Context, userID string) (*UserProfile, error)
	// GetRole 资料或角色缺失时返回 nil, nil
	GetRole(ctx context.Context, userID string) (*int, error)
	// SetRole 资料不存在时返回 ErrProfileNotFound
	SetRole(ctx context.Context, userID string, role int) error
}

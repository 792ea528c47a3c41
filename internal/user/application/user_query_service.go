package application

import (
	"context"

	"github.com/wyfcoding/musicstore/internal/user/domain"
)

// UserQueryService 用户资料查询服务
type UserQueryService struct {
	repo domain.ProfileRepository
}

// NewUserQueryService 创建新的用户资料查询服务
func NewUserQueryService(repo domain.ProfileRepository) *UserQueryService {
	return &UserQueryService{repo: repo}
}

// GetProfile 获取资料
func (s *UserQueryService) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return s.repo.Get(ctx, userID)
}

// GetRole 读取角色，资料不存在时返回 nil
func (s *UserQueryService) GetRole(ctx context.Context, userID string) (*int, error) {
	return s.repo.GetRole(ctx, userID)
}

// ShippingAddress 下单用的配送地址快照
func (s *UserQueryService) ShippingAddress(ctx context.Context, userID string) (domain.Address, error) {
	profile, err := s.repo.Get(ctx, userID)
	if err != nil {
		return domain.Address{}, err
	}
	return profile.ShippingSnapshot(), nil
}

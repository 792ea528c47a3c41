package application

import (
	"context"
	"time"

	"github.com/wyfcoding/musicstore/internal/user/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
)

// ProfileFields 注册与编辑共用的资料字段
type ProfileFields struct {
	FirstName         string
	LastName          string
	FuriganaFirstName string
	FuriganaLastName  string
	PhoneNumber       string
	Gender            string
	Address           domain.Address
	ShippingAddress   *domain.Address
}

// CreateProfileCommand 创建资料命令
type CreateProfileCommand struct {
	UserID string
	Email  string
	ProfileFields
}

// UpdateProfileCommand 编辑资料命令，邮箱与角色不可在此修改
type UpdateProfileCommand struct {
	UserID string
	ProfileFields
}

// UserCommandService 用户资料命令服务
type UserCommandService struct {
	repo      domain.ProfileRepository
	publisher domain.EventPublisher
}

// NewUserCommandService 创建新的用户资料命令服务
func NewUserCommandService(repo domain.ProfileRepository, publisher domain.EventPublisher) *UserCommandService {
	return &UserCommandService{repo: repo, publisher: publisher}
}

// CreateProfile 注册时创建资料，角色固定为普通用户
func (s *UserCommandService) CreateProfile(ctx context.Context, cmd CreateProfileCommand) (*domain.UserProfile, error) {
	role := domain.RoleCustomer
	now := time.Now()
	profile := &domain.UserProfile{
		UserID:    cmd.UserID,
		Email:     cmd.Email,
		Role:      &role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(profile, cmd.ProfileFields)
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.TopicProfileCreated, profile.UserID, domain.ProfileCreatedEvent{
		UserID:    profile.UserID,
		Email:     profile.Email,
		CreatedAt: now,
	})
	return profile, nil
}

// UpdateProfile 编辑资料
func (s *UserCommandService) UpdateProfile(ctx context.Context, cmd UpdateProfileCommand) (*domain.UserProfile, error) {
	profile, err := s.repo.Get(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	apply(profile, cmd.ProfileFields)
	profile.UpdatedAt = time.Now()
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.TopicProfileUpdated, profile.UserID, domain.ProfileUpdatedEvent{
		UserID:    profile.UserID,
		Email:     profile.Email,
		UpdatedAt: profile.UpdatedAt,
	})
	return profile, nil
}

// SetRole 管理员修改用户角色
func (s *UserCommandService) SetRole(ctx context.Context, userID string, role int) error {
	if err := domain.ValidateRole(role); err != nil {
		return err
	}
	old, err := s.repo.GetRole(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.SetRole(ctx, userID, role); err != nil {
		return err
	}

	logger.Info(ctx, "user role changed", "user_id", userID, "role", role)
	s.publish(ctx, domain.TopicUserRoleChanged, userID, domain.UserRoleChangedEvent{
		UserID:    userID,
		OldRole:   old,
		NewRole:   role,
		ChangedAt: time.Now(),
	})
	return nil
}

func apply(p *domain.UserProfile, f ProfileFields) {
	p.FirstName = f.FirstName
	p.LastName = f.LastName
	p.FuriganaFirstName = f.FuriganaFirstName
	p.FuriganaLastName = f.FuriganaLastName
	p.PhoneNumber = f.PhoneNumber
	p.Gender = f.Gender
	p.Address = f.Address
	p.ShippingAddress = f.ShippingAddress
}

func (s *UserCommandService) publish(ctx context.Context, topic, key string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, key, event); err != nil {
		// 记录错误但不影响主流程
		logger.Warn(ctx, "failed to publish user event", "topic", topic, "error", err)
	}
}

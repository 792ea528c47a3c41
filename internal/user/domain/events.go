package domain

import (
	"context"
	"time"
)

const (
	TopicProfileCreated  = "user.profile.created"
	TopicProfileUpdated  = "user.profile.updated"
	TopicUserRoleChanged = "user.role.changed"
)

// EventPublisher 事件发布者接口
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// ProfileCreatedEvent 用户资料创建事件
type ProfileCreatedEvent struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileUpdatedEvent 用户资料更新事件
type ProfileUpdatedEvent struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRoleChangedEvent 用户角色变更事件
type UserRoleChangedEvent struct {
	UserID    string    `json:"user_id"`
	OldRole   *int      `json:"old_role"`
	NewRole   int       `json:"new_role"`
	ChangedAt time.Time `json:"changed_at"`
}

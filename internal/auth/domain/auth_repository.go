package domain

import "context"

// AccountRepository 账户仓储
type AccountRepository interface {
	// Create 邮箱已存在时返回 ErrEmailTaken
	Create(ctx context.Context, account *Account) error
	// GetByEmail 不存在时返回 ErrAccountNotFound
	GetByEmail(ctx context.Context, email string) (*Account, error)
}

// SessionRepository 会话存储
type SessionRepository interface {
	Save(ctx context.Context, session *AuthSession) error
	// Get 不存在或已过期时返回 ErrSessionNotFound
	Get(ctx context.Context, id string) (*AuthSession, error)
	Delete(ctx context.Context, id string) error
}

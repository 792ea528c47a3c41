package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/musicstore/internal/auth/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// RegisterCommand 注册命令
type RegisterCommand struct {
	Email    string
	Password string
}

// LoginCommand 登录命令
type LoginCommand struct {
	Email    string
	Password string
}

// LoginResult 登录结果
type LoginResult struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// AuthCommandService 认证命令服务
type AuthCommandService struct {
	accounts   domain.AccountRepository
	sessions   domain.SessionRepository
	tokens     *TokenIssuer
	publisher  domain.EventPublisher
	bcryptCost int
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthCommandService 创建认证命令服务实例
func NewAuthCommandService(
	accounts domain.AccountRepository,
	sessions domain.SessionRepository,
	tokens *TokenIssuer,
	publisher domain.EventPublisher,
	bcryptCost int,
	sessionTTL time.Duration,
) *AuthCommandService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthCommandService{
		accounts:   accounts,
		sessions:   sessions,
		tokens:     tokens,
		publisher:  publisher,
		bcryptCost: bcryptCost,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Register 处理用户注册
func (s *AuthCommandService) Register(ctx context.Context, cmd RegisterCommand) (*domain.Account, error) {
	if len(cmd.Password) < domain.MinPasswordLength {
		return nil, domain.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := domain.NewAccount(uuid.NewString(), cmd.Email, string(hash))
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.TopicUserRegistered, account.ID, domain.UserRegisteredEvent{
		UserID:    account.ID,
		Email:     account.Email,
		Timestamp: s.now(),
	})
	return account, nil
}

// Login 处理用户登录
func (s *AuthCommandService) Login(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	account, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(cmd.Email))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(cmd.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	session := &domain.AuthSession{
		ID:        uuid.NewString(),
		UserID:    account.ID,
		Email:     account.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	token, err := s.tokens.Issue(session.UserID, session.ID, now, session.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.publish(ctx, domain.TopicUserLoggedIn, account.ID, domain.UserLoggedInEvent{
		UserID:    account.ID,
		Email:     account.Email,
		Timestamp: now,
	})
	return &LoginResult{Token: token, UserID: account.ID, ExpiresAt: session.ExpiresAt}, nil
}

// Logout 删除令牌对应的会话，无效令牌视为已登出
func (s *AuthCommandService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, claims.ID)
}

func (s *AuthCommandService) publish(ctx context.Context, topic, key string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, key, event); err != nil {
		logger.Warn(ctx, "failed to publish auth event", "topic", topic, "error", err)
	}
}

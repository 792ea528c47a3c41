package application

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/musicstore/internal/auth/domain"
)

// AuthQueryService 认证查询服务
type AuthQueryService struct {
	sessions domain.SessionRepository
	tokens   *TokenIssuer
	now      func() time.Time
}

// NewAuthQueryService 创建认证查询服务实例
func NewAuthQueryService(sessions domain.SessionRepository, tokens *TokenIssuer) *AuthQueryService {
	return &AuthQueryService{sessions: sessions, tokens: tokens, now: time.Now}
}

// Resolve 解析令牌得到身份，令牌无效或会话已失效时返回 nil, nil
func (s *AuthQueryService) Resolve(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil
	}

	session, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if session.UserID != claims.Subject || session.Expired(s.now()) {
		return nil, nil
	}
	return &domain.Identity{UserID: session.UserID, Email: session.Email}, nil
}

package domain

import (
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// AuthSession 登录会话，ID 即令牌中的 jti
type AuthSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired 会话是否已过期
func (s *AuthSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

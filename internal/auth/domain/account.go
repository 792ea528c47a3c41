package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// MinPasswordLength 密码最小长度
const MinPasswordLength = 8

// Account 登录账户
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewAccount 创建账户，邮箱统一转小写
func NewAccount(id, email, passwordHash string) *Account {
	return &Account{
		ID:           id,
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
}

// NormalizeEmail 去除空白并转小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity 已登录用户的身份
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

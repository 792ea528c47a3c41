package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// 角色取值，缺失或其他值均视为非管理员
const (
	RoleCustomer = 0
	RoleAdmin    = 1
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
	ErrInvalidRole     = errors.New("role must be 0 or 1")
)

// ValidationError 资料校验失败
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Address 配送地址
type Address struct {
	PostalCode  string `json:"postalCode"`
	Prefecture  string `json:"prefecture"`
	City        string `json:"city"`
	AddressLine string `json:"addressLine"`
}

// IsZero 地址是否为空
func (a Address) IsZero() bool {
	return a.PostalCode == "" && a.Prefecture == "" && a.City == "" && a.AddressLine == ""
}

// UserProfile 用户资料
type UserProfile struct {
	UserID            string    `json:"userId"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	FuriganaFirstName string    `json:"furiganaFirstName"`
	FuriganaLastName  string    `json:"furiganaLastName"`
	Email             string    `json:"email"`
	PhoneNumber       string    `json:"phoneNumber"`
	Gender            string    `json:"gender"`
	Address           Address   `json:"address"`
	ShippingAddress   *Address  `json:"shippingAddress,omitempty"`
	Role              *int      `json:"role,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Validate 校验必填项
func (p *UserProfile) Validate() error {
	if p.UserID == "" {
		return &ValidationError{Field: "userId", Reason: "required"}
	}
	if strings.TrimSpace(p.LastName) == "" {
		return &ValidationError{Field: "lastName", Reason: "required"}
	}
	if strings.TrimSpace(p.FirstName) == "" {
		return &ValidationError{Field: "firstName", Reason: "required"}
	}
	if strings.TrimSpace(p.Email) == "" {
		return &ValidationError{Field: "email", Reason: "required"}
	}
	return nil
}

// IsAdmin 仅当角色存在且为 1 时为管理员
func (p *UserProfile) IsAdmin() bool {
	return IsAdminRole(p.Role)
}

// IsAdminRole 判断角色值
func IsAdminRole(role *int) bool {
	return role != nil && *role == RoleAdmin
}

// ShippingSnapshot 下单时使用的配送地址，未单独设置时使用住址
func (p *UserProfile) ShippingSnapshot() Address {
	if p.ShippingAddress != nil && !p.ShippingAddress.IsZero() {
		return *p.ShippingAddress
	}
	return p.Address
}

// FullName 姓在前
func (p *UserProfile) FullName() string {
	return strings.TrimSpace(p.LastName + " " + p.FirstName)
}

// ValidateRole 角色只允许 0 或 1
func ValidateRole(role int) error {
	if role != RoleCustomer && role != RoleAdmin {
		return ErrInvalidRole
	}
	return nil
}

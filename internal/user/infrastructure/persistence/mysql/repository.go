// Package mysql 提供用户资料仓储的 GORM 实现
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/musicstore/internal/user/domain"
	"github.com/wyfcoding/musicstore/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddressColumns 地址列
type AddressColumns struct {
	PostalCode  string `gorm:"column:postal_code;type:varchar(16)" json:"postalCode"`
	Prefecture  string `gorm:"column:prefecture;type:varchar(32)" json:"prefecture"`
	City        string `gorm:"column:city;type:varchar(100)" json:"city"`
	AddressLine string `gorm:"column:address_line;type:varchar(255)" json:"addressLine"`
}

// ProfileModel 用户资料数据库模型
type ProfileModel struct {
	UserID            string          `gorm:"column:user_id;type:varchar(36);primaryKey"`
	FirstName         string          `gorm:"column:first_name;type:varchar(100)"`
	LastName          string          `gorm:"column:last_name;type:varchar(100)"`
	FuriganaFirstName string          `gorm:"column:furigana_first_name;type:varchar(100)"`
	FuriganaLastName  string          `gorm:"column:furigana_last_name;type:varchar(100)"`
	Email             string          `gorm:"column:email;type:varchar(255);index"`
	PhoneNumber       string          `gorm:"column:phone_number;type:varchar(32)"`
	Gender            string          `gorm:"column:gender;type:varchar(16)"`
	Address           AddressColumns  `gorm:"embedded;embeddedPrefix:address_"`
	ShippingAddress   *AddressColumns `gorm:"column:shipping_address;serializer:json"`
	Role              *int            `gorm:"column:role"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`
}

// TableName 指定表名
func (ProfileModel) TableName() string { return "user_profiles" }

// editableColumns 编辑资料时允许写入的列
var editableColumns = []string{
	"first_name", "last_name", "furigana_first_name", "furigana_last_name",
	"phone_number", "gender",
	"address_postal_code", "address_prefecture", "address_city", "address_address_line",
	"shipping_address", "updated_at",
}

type profileRepository struct{ db *gorm.DB }

// NewProfileRepository 创建用户资料仓储
func NewProfileRepository(db *gorm.DB) domain.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.UserProfile) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(fromDomain(profile))
	if res.Error != nil {
		logger.Error(ctx, "profile_repository.create failed", "user_id", profile.UserID, "error", res.Error)
		return fmt.Errorf("failed to create profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrProfileExists
	}
	return nil
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.UserProfile) error {
	res := r.db.WithContext(ctx).
		Model(&ProfileModel{UserID: profile.UserID}).
		Select(editableColumns).
		Updates(fromDomain(profile))
	if res.Error != nil {
		return fmt.Errorf("failed to update profile: %w", res.Error)
	}
	return nil
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var m ProfileModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return m.toDomain(), nil
}

func (r *profileRepository) GetRole(ctx context.Context, userID string) (*int, error) {
	var m ProfileModel
	err := r.db.WithContext(ctx).Select("role").Where("user_id = ?", userID).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read role: %w", err)
	}
	return m.Role, nil
}

func (r *profileRepository) SetRole(ctx context.Context, userID string, role int) error {
	res := r.db.WithContext(ctx).Model(&ProfileModel{}).Where("user_id = ?", userID).Update("role", role)
	if res.Error != nil {
		return fmt.Errorf("failed to set role: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// MySQL 对值未变化的行同样返回 0
	var count int64
	if err := r.db.WithContext(ctx).Model(&ProfileModel{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	if count == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func fromDomain(p *domain.UserProfile) *ProfileModel {
	m := &ProfileModel{
		UserID:            p.UserID,
		FirstName:         p.FirstName,
		LastName:          p.LastName,
		FuriganaFirstName: p.FuriganaFirstName,
		FuriganaLastName:  p.FuriganaLastName,
		Email:             p.Email,
		PhoneNumber:       p.PhoneNumber,
		Gender:            p.Gender,
		Address:           AddressColumns(p.Address),
		Role:              p.Role,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if p.ShippingAddress != nil {
		ship := AddressColumns(*p.ShippingAddress)
		m.ShippingAddress = &ship
	}
	return m
}

func (m *ProfileModel) toDomain() *domain.UserProfile {
	p := &domain.UserProfile{
		UserID:            m.UserID,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		FuriganaFirstName: m.FuriganaFirstName,
		FuriganaLastName:  m.FuriganaLastName,
		Email:             m.Email,
		PhoneNumber:       m.PhoneNumber,
		Gender:            m.Gender,
		Address:           domain.Address(m.Address),
		Role:              m.Role,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.ShippingAddress != nil {
		ship := domain.Address(*m.ShippingAddress)
		p.ShippingAddress = &ship
	}
	return p
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/naebak/naebak-auth-service/pkg/enums"
	"gorm.io/gorm"
)

// User represents the canonical identity entity.
type User struct {
	ID                 uuid.UUID                `gorm:"type:uuid;primaryKey"`
	Email              string                   `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash       string                   `gorm:"column:password_hash;not null"`
	FirstName          string                   `gorm:"column:first_name;not null"`
	LastName           string                   `gorm:"column:last_name;not null"`
	Phone              *string                  `gorm:"column:phone"`
	UserType           enums.UserType           `gorm:"column:user_type;type:text;not null"`
	VerificationStatus enums.VerificationStatus `gorm:"column:verification_status;type:text;not null;default:pending"`
	IsActive           bool                     `gorm:"column:is_active;not null;default:true"`
	ExternalProviderID *string                  `gorm:"column:external_provider_id"`
	LastLoginIP        *string                  `gorm:"column:last_login_ip"`
	LastActiveAt       *time.Time               `gorm:"column:last_active_at"`
	LastLoginAt        *time.Time               `gorm:"column:last_login_at"`
	PasswordChangedAt  *time.Time               `gorm:"column:password_changed_at"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsVerified reports whether the account passed verification.
func (u *User) IsVerified() bool {
	return u.VerificationStatus == enums.VerificationStatusVerified
}

// CanVote reports whether the account is a verified citizen.
func (u *User) CanVote() bool {
	return u.UserType == enums.UserTypeCitizen && u.IsVerified()
}

// NationalIDRecord reserves a national id for exactly one account across all
// profile variants.
type NationalIDRecord struct {
	NationalID string    `gorm:"column:national_id;type:char(14);primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (NationalIDRecord) TableName() string { return "national_ids" }

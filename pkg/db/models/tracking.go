package models

import (
	"time"

	"github.com/google/uuid"
	dbtypes "github.com/naebak/naebak-auth-service/pkg/db/types"
	"gorm.io/gorm"
)

// UserSession tracks activity for an authenticated session.
type UserSession struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionKey   string    `gorm:"column:session_key;not null;uniqueIndex"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	IPAddress    string    `gorm:"column:ip_address;not null;default:''"`
	UserAgent    string    `gorm:"column:user_agent;not null;default:''"`
	DeviceType   string    `gorm:"column:device_type;not null;default:''"`
	IsActive     bool      `gorm:"column:is_active;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	LastActivity time.Time `gorm:"column:last_activity;not null;index"`
}

func (s *UserSession) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// AnonymousSession tracks an unauthenticated visitor.
type AnonymousSession struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey"`
	SessionKey   string             `gorm:"column:session_key;not null;uniqueIndex"`
	IPAddress    string             `gorm:"column:ip_address;not null;default:''"`
	UserAgent    string             `gorm:"column:user_agent;not null;default:''"`
	DeviceType   string             `gorm:"column:device_type;not null;default:''"`
	PagesVisited dbtypes.StringList `gorm:"column:pages_visited;not null"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	LastActivity time.Time          `gorm:"column:last_activity;not null;index"`
}

func (s *AnonymousSession) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.PagesVisited == nil {
		s.PagesVisited = dbtypes.StringList{}
	}
	return nil
}

// LoginAttempt is an audit row for every credential check.
type LoginAttempt struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email         string    `gorm:"column:email;not null;index"`
	IPAddress     string    `gorm:"column:ip_address;not null;default:''"`
	UserAgent     string    `gorm:"column:user_agent;not null;default:''"`
	Success       bool      `gorm:"column:success;not null"`
	FailureReason *string   `gorm:"column:failure_reason;type:varchar(100)"`
	AttemptedAt   time.Time `gorm:"column:attempted_at;not null;index"`
}

func (a *LoginAttempt) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/naebak/naebak-auth-service/pkg/db/models"
	"github.com/naebak/naebak-auth-service/pkg/enums"
	"github.com/naebak/naebak-auth-service/pkg/pagination"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID                 uuid.UUID                `json:"id"`
	Email              string                   `json:"email"`
	FirstName          string                   `json:"first_name"`
	LastName           string                   `json:"last_name"`
	FullName           string                   `json:"full_name"`
	Phone              *string                  `json:"phone_number,omitempty"`
	UserType           enums.UserType           `json:"user_type"`
	UserTypeDisplay    string                   `json:"user_type_display"`
	VerificationStatus enums.VerificationStatus `json:"verification_status"`
	IsVerified         bool                     `json:"is_verified"`
	CanVote            bool                     `json:"can_vote"`
	IsActive           bool                     `json:"is_active"`
	LastLoginAt        *time.Time               `json:"last_login_at,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email              string
	PasswordHash       string
	FirstName          string
	LastName           string
	Phone              *string
	UserType           enums.UserType
	VerificationStatus enums.VerificationStatus
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:                 u.ID,
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		FullName:           u.FullName(),
		Phone:              u.Phone,
		UserType:           u.UserType,
		UserTypeDisplay:    u.UserType.DisplayAR(),
		VerificationStatus: u.VerificationStatus,
		IsVerified:         u.IsVerified(),
		CanVote:            u.CanVote(),
		IsActive:           u.IsActive,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	status := c.VerificationStatus
	if status == "" {
		status = enums.VerificationStatusPending
	}
	return &models.User{
		Email:              c.Email,
		PasswordHash:       c.PasswordHash,
		FirstName:          c.FirstName,
		LastName:           c.LastName,
		Phone:              c.Phone,
		UserType:           c.UserType,
		VerificationStatus: status,
		IsActive:           true,
	}
}

// ListQuery filters the member-facing account listing. Nil filters match
// everything.
type ListQuery struct {
	UserType      *enums.UserType
	GovernorateID *uint
	Pagination    pagination.Params
}

// ListResult is one page of accounts plus the filtered total.
type ListResult struct {
	Users      []*UserDTO `json:"users"`
	Total      int64      `json:"total"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// Stats aggregates account counts for the statistics endpoint.
type Stats struct {
	TotalUsers     int64            `json:"total_users"`
	VerifiedUsers  int64            `json:"verified_users"`
	ActiveUsers    int64            `json:"active_users"`
	ByUserType     map[string]int64 `json:"by_user_type"`
	ByVerification map[string]int64 `json:"by_verification_status"`
}

package auth

import (
	"github.com/naebak/naebak-auth-service/internal/profiles"
	"github.com/naebak/naebak-auth-service/internal/users"
)

// RegisterRequest carries the identity fields plus the profile fields of the
// chosen user type.
type RegisterRequest struct {
	Email                string  `json:"email" validate:"required,email,max=254"`
	Password             string  `json:"password" validate:"required,strong_password"`
	PasswordConfirmation string  `json:"password_confirmation" validate:"required,eqfield=Password"`
	FirstName            string  `json:"first_name" validate:"required,max=150"`
	LastName             string  `json:"last_name" validate:"required,max=150"`
	Phone                *string `json:"phone_number,omitempty" validate:"omitempty,max=20"`
	UserType             string  `json:"user_type" validate:"required"`
	profiles.Fields
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type PasswordChangeRequest struct {
	OldPassword             string `json:"old_password" validate:"required"`
	NewPassword             string `json:"new_password" validate:"required,strong_password"`
	NewPasswordConfirmation string `json:"new_password_confirmation" validate:"required,eqfield=NewPassword"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Token                   string `json:"token" validate:"required"`
	NewPassword             string `json:"new_password" validate:"required,strong_password"`
	NewPasswordConfirmation string `json:"new_password_confirmation" validate:"required,eqfield=NewPassword"`
}

// RequestMeta is what the HTTP layer knows about the caller.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Tokens is the issued credential pair.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type RegisterResponse struct {
	User    *users.UserDTO `json:"user"`
	Profile *profiles.DTO  `json:"profile"`
	Tokens  Tokens         `json:"tokens"`
	Welcome Welcome        `json:"welcome"`
}

type LoginResponse struct {
	User    *users.UserDTO `json:"user"`
	Tokens  Tokens         `json:"tokens"`
	Welcome Welcome        `json:"welcome"`
}

// StatusResponse reports whether the caller holds a live session.
type StatusResponse struct {
	Authenticated             bool           `json:"authenticated"`
	User                      *users.UserDTO `json:"user,omitempty"`
	EmailVerificationRequired bool           `json:"email_verification_required"`
	PhoneVerificationRequired bool           `json:"phone_verification_required"`
}

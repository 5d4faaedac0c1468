package api

import (
	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/domain"
)

// Common request/response structures

// SignUpRequest defines the payload for the account registration endpoint.
// Password complexity beyond length is enforced by the domain so the rules
// live in one place.
type SignUpRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"omitempty,max=100"`
}

// VerifyRequest defines the payload for the email verification endpoint.
type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  int    `json:"code"  validate:"required,min=100000,max=999999"`
}

// ResendVerificationRequest defines the payload for re-requesting a
// verification code.
type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// PasswordResetRequest defines the payload for requesting a password reset.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordUpdateRequest defines the payload for fulfilling a password
// reset with the emailed credential.
type PasswordUpdateRequest struct {
	Email       string `json:"email"       validate:"required,email"`
	ResetToken  string `json:"reset_token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// UpdateProfileRequest defines the payload for editing profile fields.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

// ChangePasswordRequest defines the payload for an authorized password
// change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,min=1"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=72"`
}

// UserResponse is the public shape of an account. The password hash,
// verification code, and reset fields are never serialized.
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	Verified    bool      `json:"verified"`
}

// NewUserResponse maps a domain user to its public shape.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Verified:    user.Verified,
	}
}

// MessageResponse is the body for endpoints whose success needs no data.
type MessageResponse struct {
	Message string `json:"message"`
}

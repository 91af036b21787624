package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	StateID      uuid.UUID `json:"state_id"`
	CityID       uuid.UUID `json:"city_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterRequest is the body of POST /api/users/register
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	StateID  string `json:"state_id" validate:"required"`
	CityID   string `json:"city_id" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type VerifyOTPRequest struct {
	Email   string `json:"email" validate:"required"`
	OTPCode string `json:"otpCode" validate:"required"`
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required"`
}

// AuthResponse carries a session token. Scope tells the client whether the second factor is still pending.
type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	Scope   string `json:"scope,omitempty"`
}

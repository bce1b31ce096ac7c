package dto

import (
	"time"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

// LoginRequest holds office account credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token for rotation or logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is issued on login and on every refresh.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int64     `json:"expires_in"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Profile describes the signed in user.
type Profile struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	FullName  string          `json:"full_name"`
	Role      models.UserRole `json:"role"`
	LastLogin *time.Time      `json:"last_login,omitempty"`
}

// LoginResult bundles the tokens with the profile they were issued for.
type LoginResult struct {
	TokenPair
	User Profile `json:"user"`
}

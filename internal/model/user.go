package model

import (
	"github.com/google/uuid"
)

// User is a staff account. The role field names a role template; the
// template's permissions are denormalized into the session token at login.
type User struct {
	Base
	Tenancy
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	FirstName    string `json:"first_name" db:"first_name"`
	LastName     string `json:"last_name" db:"last_name"`
	Role         string `json:"role" db:"role"`
	Active       bool   `json:"active" db:"active"`
}

// Principal is the authenticated caller as reconstructed from token
// claims. Authorization checks operate on the Permissions snapshot only
// and never reach back into storage.
type Principal struct {
	UserID      uuid.UUID    `json:"user_id"`
	TenantID    uuid.UUID    `json:"tenant_id"`
	BranchID    uuid.UUID    `json:"branch_id"`
	Email       string       `json:"email"`
	Role        string       `json:"role"`
	Permissions []Permission `json:"permissions"`
}

// LoginRequest authenticates a staff account.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenPair is the login/refresh response body.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

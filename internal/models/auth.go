package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest holds the payload for creating a new account.
type RegisterRequest struct {
	Username        string   `json:"username" validate:"required,max=150"`
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required,min=8"`
	PasswordConfirm string   `json:"password_confirm" validate:"required"`
	FirstName       string   `json:"first_name" validate:"max=150"`
	LastName        string   `json:"last_name" validate:"max=150"`
	UserType        UserRole `json:"user_type"`
	Phone           string   `json:"phone" validate:"max=20"`
	IP              string   `json:"-"`
	UserAgent       string   `json:"-"`
}

// LoginRequest holds credentials for authenticating a user. Username accepts
// either the account username or its email address.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// TokenPair bundles the issued access and refresh tokens.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthResponse returns the account info and issued tokens after register or
// login.
type AuthResponse struct {
	User      UserInfo  `json:"user"`
	Tokens    TokenPair `json:"tokens"`
	ExpiresIn int64     `json:"expires_in"`
	IssuedAt  time.Time `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	Refresh   string `json:"refresh" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// RefreshTokenResponse returns the rotated tokens.
type RefreshTokenResponse struct {
	Tokens    TokenPair `json:"tokens"`
	ExpiresIn int64     `json:"expires_in"`
	IssuedAt  time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated account in responses.
type UserInfo struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Role      UserRole `json:"user_type"`
	Phone     string   `json:"phone"`
	Avatar    *string  `json:"avatar,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	jwt.RegisteredClaims
}

// Info projects a user into the response shape.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Phone:     u.Phone,
		Avatar:    u.Avatar,
	}
}

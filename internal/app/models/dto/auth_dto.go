package dto

import (
	"github.com/ekene/classpulse/internal/app/models"
)

// LoginRequest authenticates a user by email and password.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserInfo is the public view of a user.
type UserInfo struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Email  string          `json:"email"`
	Role   models.RoleType `json:"role"`
	Centre string          `json:"centre,omitempty"`
}

// NewUserInfo converts a user model to its public view.
func NewUserInfo(u *models.User) *UserInfo {
	if u == nil {
		return nil
	}
	return &UserInfo{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Centre: u.Centre,
	}
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresIn int       `json:"expiresIn"`
	User      *UserInfo `json:"user"`
}

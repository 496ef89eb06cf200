package models

import (
	"time"
)

// User defines the user model based on the 'users' table. The attendance core
// treats this as a directory: lecturers are resolved from it when a session
// lacks an owner id, and student profile fields are copied onto check-in logs.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	Name      string    `json:"name" db:"name"`
	Role      RoleType  `json:"role" db:"role"`
	Centre    string    `json:"centre,omitempty" db:"centre"`
	Location  string    `json:"location,omitempty" db:"location"`
	IsActive  bool      `json:"isActive" db:"is_active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

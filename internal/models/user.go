package models

import (
	"strings"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleClient     UserRole = "CLIENT"
	RoleInstructor UserRole = "INSTRUCTOR"
	RoleAdmin      UserRole = "ADMIN"
	RoleGuest      UserRole = "GUEST"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleClient, RoleInstructor, RoleAdmin, RoleGuest:
		return true
	}
	return false
}

// User represents an account stored in the profiles table. PackageCredits
// is only meaningful for clients.
type User struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"full_name" json:"name" validate:"required"`
	Email          string    `db:"email" json:"email" validate:"required,email"`
	Role           UserRole  `db:"role" json:"role" validate:"required,oneof=CLIENT INSTRUCTOR ADMIN GUEST"`
	AvatarURL      string    `db:"avatar_url" json:"avatar_url,omitempty"`
	PackageCredits int       `db:"package_credits" json:"package_credits" validate:"min=0"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// NormalizeEmail lower-cases and trims an address for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserFilter captures filtering criteria for listing users.
// Page and PageSize are applied by the service after filtering.
type UserFilter struct {
	Role     *UserRole
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// CreateUserRequest is the admin payload for provisioning an account.
type CreateUserRequest struct {
	Name           string   `json:"name" validate:"required"`
	Email          string   `json:"email" validate:"required,email"`
	Password       string   `json:"password" validate:"required,min=6"`
	Role           UserRole `json:"role" validate:"required,oneof=CLIENT INSTRUCTOR ADMIN GUEST"`
	AvatarURL      string   `json:"avatar_url"`
	PackageCredits int      `json:"package_credits" validate:"min=0"`
}

// UpdateUserRequest carries partial profile updates.
type UpdateUserRequest struct {
	Name           *string   `json:"name" validate:"omitempty,min=1"`
	Email          *string   `json:"email" validate:"omitempty,email"`
	Role           *UserRole `json:"role" validate:"omitempty,oneof=CLIENT INSTRUCTOR ADMIN GUEST"`
	AvatarURL      *string   `json:"avatar_url"`
	PackageCredits *int      `json:"package_credits" validate:"omitempty,min=0"`
}

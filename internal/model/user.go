package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthProvider defines how the user authenticates
type AuthProvider string

const (
	AuthProviderEmail  AuthProvider = "email"
	AuthProviderGoogle AuthProvider = "google"
)

// Role is the member's position on the platform
type Role string

const (
	RoleAgent  Role = "agent"
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// User is a platform member: an agent listing properties, a client looking for one, or an admin
type User struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name            string         `json:"name" gorm:"size:100;not null"`
	Email           string         `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Phone           string         `json:"phone" gorm:"size:30;default:''"`
	Password        string         `json:"-" gorm:"size:255"` // empty for Google accounts
	Role            Role           `json:"role" gorm:"type:varchar(20);not null;default:'client'"`
	Avatar          string         `json:"avatar" gorm:"size:500;default:''"`
	AuthProvider    AuthProvider   `json:"auth_provider" gorm:"type:varchar(20);default:'email'"`
	GoogleID        *string        `json:"-" gorm:"uniqueIndex;size:255"`
	EmailVerifiedAt *time.Time     `json:"email_verified_at"` // NULL = not verified
	IsActive        bool           `json:"is_active" gorm:"not null"`
	IsOnline        bool           `json:"is_online" gorm:"default:false"`
	LastSeen        *time.Time     `json:"last_seen"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsEmailVerified checks if the user's email has been verified
func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// UserResponse is the safe version of User for API responses
type UserResponse struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone"`
	Role          Role         `json:"role"`
	Avatar        string       `json:"avatar"`
	AuthProvider  AuthProvider `json:"auth_provider"`
	EmailVerified bool         `json:"email_verified"`
	IsActive      bool         `json:"is_active"`
	IsOnline      bool         `json:"is_online"`
	LastSeen      *time.Time   `json:"last_seen"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ToResponse converts User to safe UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		Role:          u.Role,
		Avatar:        u.Avatar,
		AuthProvider:  u.AuthProvider,
		EmailVerified: u.IsEmailVerified(),
		IsActive:      u.IsActive,
		IsOnline:      u.IsOnline,
		LastSeen:      u.LastSeen,
		CreatedAt:     u.CreatedAt,
	}
}

package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a registered user.
//
// HasUsedTrial is a one-way flag: it is set when the daily trial ceiling is
// first reached or when any subscription is activated, and never reset.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-" gorm:"column:password_hash"`

	IsAdmin      bool `json:"is_admin" gorm:"column:is_admin;default:false"`
	IsVerified   bool `json:"is_verified" gorm:"column:is_verified;default:false"`
	HasUsedTrial bool `json:"has_used_trial" gorm:"column:has_used_trial;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (User) TableName() string {
	return "users"
}

// IsAdministrator reports whether the user has administrator privileges.
// Admin status is granted either by the explicit flag or by matching the
// configured administrator address; both are checked everywhere so the rule
// lives in one place.
func IsAdministrator(u *User, adminEmail string) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin {
		return true
	}
	return adminEmail != "" && strings.EqualFold(u.Email, adminEmail)
}

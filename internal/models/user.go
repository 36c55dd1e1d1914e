// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Role names seeded at startup. User-facing roles drive nutrition targets,
// ADMIN gates the management API.
const (
	RolePregnant  = "IBU_HAMIL"
	RoleLactating = "IBU_MENYUSUI"
	RoleToddler   = "ANAK_BATITA"
	RoleAdmin     = "ADMIN"
)

// Role is a lookup row referenced by users.
type Role struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:255" json:"description,omitempty"`
}

// TableName specifies the table name for GORM
func (Role) TableName() string {
	return "roles"
}

// User represents an account. Password is empty for Google-only accounts.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:120" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:255" json:"-"`
	GoogleID  *string   `gorm:"size:64;uniqueIndex" json:"-"`
	Avatar    string    `gorm:"size:500" json:"avatar,omitempty"`
	RoleID    *uint     `gorm:"index" json:"-"`
	Role      *Role     `gorm:"foreignKey:RoleID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// RoleName returns the name of the user's role, or "" when none is assigned.
// Role must be preloaded.
func (u *User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// IsAdmin reports whether the user holds the ADMIN role. Role must be preloaded.
func (u *User) IsAdmin() bool {
	return u.RoleName() == RoleAdmin
}

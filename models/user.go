package models

import (
	"time"
)

// User roles. Lectors are field readers scoped to their own meters.
const (
	RoleAdmin  = "admin"
	RoleLector = "lector"
)

// User represents an account that can log in: an administrator or a field
// reader (lector). Users are soft-deactivated, never hard-deleted.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"type:varchar(100);not null" json:"name"`
	Email        string     `gorm:"type:varchar(100);unique;not null" json:"email"`
	PasswordHash string     `gorm:"type:varchar(100);not null" json:"-"` // never exposed in JSON
	Phone        string     `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Role         string     `gorm:"type:varchar(20);not null;default:'lector'" json:"role"`
	ZoneID       *uint      `json:"zone_id,omitempty"`
	Active       bool       `gorm:"not null;default:true" json:"active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	Zone   *Zone   `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`
	Meters []Meter `gorm:"foreignKey:UserID" json:"meters,omitempty"`
}

// IsAdmin reports whether the user has the administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicInfo returns the user as a client-facing payload. The password hash
// never leaves the model; everything else is safe to expose.
func (u *User) PublicInfo() map[string]interface{} {
	info := map[string]interface{}{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"phone":      u.Phone,
		"role":       u.Role,
		"zone_id":    u.ZoneID,
		"active":     u.Active,
		"created_at": u.CreatedAt,
	}
	if u.LastLoginAt != nil {
		info["last_login_at"] = u.LastLoginAt
	}
	if u.Zone != nil {
		info["zone"] = u.Zone
	}
	return info
}

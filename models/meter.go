package models

import (
	"time"
)

// Meter represents a physical water or electricity meter tracked by serial
// number. A meter is owned by at most one user; deletion is a soft
// deactivation via the Active flag.
type Meter struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Serial    string    `gorm:"type:varchar(50);unique;not null" json:"serial"`
	Location  string    `gorm:"type:varchar(200)" json:"location"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Readings []Reading `gorm:"foreignKey:MeterID" json:"readings,omitempty"`
}

// OwnedBy reports whether the meter belongs to the given user.
func (m *Meter) OwnedBy(userID uint) bool {
	return m.UserID != nil && *m.UserID == userID
}

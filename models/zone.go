package models

import (
	"time"
)

// Zone is a rural zone: a geographic grouping of users used for reporting
// rollups. Read-mostly reference data, managed by administrators.
type Zone struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Comuna    string    `gorm:"type:varchar(100)" json:"comuna"`
	Region    string    `gorm:"type:varchar(100)" json:"region"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Users []User `gorm:"foreignKey:ZoneID" json:"users,omitempty"`
}

package models

import (
	"time"
)

// Reading is one timestamped consumption value recorded for a meter, either
// online or imported through the offline bulk sync. Immutable once created
// except for the Synced flag.
type Reading struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	MeterID     uint      `gorm:"not null;index" json:"meter_id"`
	Value       float64   `gorm:"not null" json:"value"`
	Timestamp   time.Time `gorm:"not null;index" json:"timestamp"`
	Observation string    `gorm:"type:varchar(500)" json:"observation,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Synced      bool      `gorm:"not null;default:false" json:"synced"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Meter  *Meter  `gorm:"foreignKey:MeterID" json:"meter,omitempty"`
	Alerts []Alert `gorm:"foreignKey:ReadingID" json:"alerts,omitempty"`
}

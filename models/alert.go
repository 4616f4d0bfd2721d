package models

import (
	"time"
)

// Alert kinds raised automatically by the anomaly detector. Admins may also
// create alerts manually with kinds outside this set.
const (
	AlertHighConsumption = "high_consumption"
	AlertZeroConsumption = "zero_consumption"
	AlertSharpVariation  = "sharp_variation"
)

// Alert flags a reading as anomalous. Tied 1:1 to the reading that triggered
// it; Resolved only ever transitions false to true.
type Alert struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReadingID uint      `gorm:"not null;index" json:"reading_id"`
	Kind      string    `gorm:"type:varchar(30);not null;index" json:"kind"`
	Message   string    `gorm:"type:varchar(500);not null" json:"message"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	Resolved  bool      `gorm:"not null;default:false" json:"resolved"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Reading *Reading `gorm:"foreignKey:ReadingID" json:"reading,omitempty"`
}

package models

import (
	"time"
)

// Report types persisted as audit records of generated reports.
const (
	ReportTypeConsumption = "consumption"
	ReportTypeAlerts      = "alerts"
)

// Report is an immutable audit record of a generated report: who asked for
// it, with which parameters, and a one-line summary of the result.
type Report struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	ReportType  string    `gorm:"type:varchar(30);not null" json:"report_type"`
	Parameters  string    `gorm:"type:jsonb" json:"parameters"`
	Summary     string    `gorm:"type:varchar(500)" json:"summary"`
	GeneratedAt time.Time `gorm:"not null" json:"generated_at"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

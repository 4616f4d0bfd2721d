// Package scope computes the row filter every query must apply based on the
// requesting actor. Each resolver returns a gorm scope, so the exact same
// predicate is applied to the page query and to the total-count query of a
// listing — the two can never drift apart.
package scope

import (
	"gorm.io/gorm"

	"github.com/Saurus21/agua-rural-api/models"
)

// Actor is the authenticated identity a request runs as, extracted from the
// JWT claims by the auth middleware.
type Actor struct {
	UserID uint
	Role   string
}

// IsAdmin reports whether the actor has unrestricted access.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Meters restricts meters to those owned by the actor. Admins see all rows.
func Meters(a Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if a.IsAdmin() {
			return db
		}
		return db.Where("meters.user_id = ?", a.UserID)
	}
}

// Readings restricts readings to those whose meter is owned by the actor,
// joining through the owning meter.
func Readings(a Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if a.IsAdmin() {
			return db
		}
		return db.
			Joins("JOIN meters ON meters.id = readings.meter_id").
			Where("meters.user_id = ?", a.UserID)
	}
}

// Alerts restricts alerts to those whose underlying reading's meter is owned
// by the actor, joining through reading and meter.
func Alerts(a Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if a.IsAdmin() {
			return db
		}
		return db.
			Joins("JOIN readings ON readings.id = alerts.reading_id").
			Joins("JOIN meters ON meters.id = readings.meter_id").
			Where("meters.user_id = ?", a.UserID)
	}
}

// Reports restricts report history to records generated by the actor.
func Reports(a Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if a.IsAdmin() {
			return db
		}
		return db.Where("reports.user_id = ?", a.UserID)
	}
}

// Users restricts the users table to the actor's own record.
func Users(a Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if a.IsAdmin() {
			return db
		}
		return db.Where("users.id = ?", a.UserID)
	}
}

// CanAccessMeter decides read/mutate access to a single loaded meter.
// Existence has already been established by the caller, so a false result
// maps to 403, not 404.
func CanAccessMeter(a Actor, m *models.Meter) bool {
	return a.IsAdmin() || m.OwnedBy(a.UserID)
}

// CanAccessUser decides whether the actor may view or update a user record.
func CanAccessUser(a Actor, userID uint) bool {
	return a.IsAdmin() || a.UserID == userID
}

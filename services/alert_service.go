package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/config"
	"github.com/Saurus21/agua-rural-api/models"
	"github.com/Saurus21/agua-rural-api/scope"
)

// AlertFilter narrows alert listings.
type AlertFilter struct {
	Kind     string
	Resolved *bool
}

// AlertKindStats is the per-kind slice of the alert statistics.
type AlertKindStats struct {
	Kind     string `json:"kind"`
	Total    int64  `json:"total"`
	Resolved int64  `json:"resolved"`
	Pending  int64  `json:"pending"`
}

// AlertStatistics aggregates alerts by kind over a day window.
type AlertStatistics struct {
	ByKind     []AlertKindStats `json:"by_kind"`
	Total      int64            `json:"total"`
	Resolved   int64            `json:"resolved"`
	Pending    int64            `json:"pending"`
	PeriodDays int              `json:"period_days"`
}

// InterfaceAlertService defines the alert operations.
type InterfaceAlertService interface {
	GetAlerts(actor scope.Actor, page, limit int, filter AlertFilter) ([]models.Alert, int64, error)
	GetAlertByID(actor scope.Actor, id uint) (*models.Alert, error)
	GetPendingAlerts(actor scope.Actor) ([]models.Alert, error)
	ResolveAlert(actor scope.Actor, id uint) (*models.Alert, error)
	CreateAlert(readingID uint, kind, message string) (*models.Alert, error)
	GetStatistics(actor scope.Actor, days int) (*AlertStatistics, error)
}

// AlertService manages alerts and their lifecycle.
type AlertService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewAlertService creates a new alert service.
func NewAlertService(db *gorm.DB, cfg *config.Config) *AlertService {
	return &AlertService{DB: db, Config: cfg}
}

// GetAlerts lists alerts newest first with pagination, scoped through the
// owning meter. Page rows and the total count share the same query.
func (s *AlertService) GetAlerts(actor scope.Actor, page, limit int, filter AlertFilter) ([]models.Alert, int64, error) {
	query := s.DB.Model(&models.Alert{}).Scopes(scope.Alerts(actor))
	if filter.Kind != "" {
		query = query.Where("alerts.kind = ?", filter.Kind)
	}
	if filter.Resolved != nil {
		query = query.Where("alerts.resolved = ?", *filter.Resolved)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var alerts []models.Alert
	offset := (page - 1) * limit
	err := query.Preload("Reading").Preload("Reading.Meter").Preload("Reading.Meter.User").
		Order("alerts.timestamp DESC").Limit(limit).Offset(offset).Find(&alerts).Error
	if err != nil {
		return nil, 0, err
	}

	return alerts, total, nil
}

// GetAlertByID returns one alert with its reading chain.
func (s *AlertService) GetAlertByID(actor scope.Actor, id uint) (*models.Alert, error) {
	var alert models.Alert
	err := s.DB.Preload("Reading").Preload("Reading.Meter").First(&alert, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("alert not found")
		}
		return nil, err
	}

	if !s.canAccessAlert(actor, &alert) {
		return nil, apperrors.Forbidden("you do not have permission to view this alert")
	}

	return &alert, nil
}

// GetPendingAlerts returns all unresolved alerts visible to the actor,
// oldest first so the most overdue show up on top.
func (s *AlertService) GetPendingAlerts(actor scope.Actor) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.DB.Model(&models.Alert{}).Scopes(scope.Alerts(actor)).
		Where("alerts.resolved = ?", false).
		Preload("Reading").Preload("Reading.Meter").
		Order("alerts.timestamp ASC").Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// ResolveAlert marks an alert resolved. The transition is one-way: resolving
// an already-resolved alert just re-confirms the state.
func (s *AlertService) ResolveAlert(actor scope.Actor, id uint) (*models.Alert, error) {
	var alert models.Alert
	if err := s.DB.Preload("Reading").Preload("Reading.Meter").First(&alert, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("alert not found")
		}
		return nil, err
	}

	if !s.canAccessAlert(actor, &alert) {
		return nil, apperrors.Forbidden("you do not have permission to resolve this alert")
	}

	if !alert.Resolved {
		if err := s.DB.Model(&alert).Update("resolved", true).Error; err != nil {
			return nil, err
		}
		alert.Resolved = true
	}

	return &alert, nil
}

// CreateAlert creates a manual alert on an existing reading. Admin-only at
// the route level.
func (s *AlertService) CreateAlert(readingID uint, kind, message string) (*models.Alert, error) {
	if readingID == 0 || kind == "" || message == "" {
		return nil, apperrors.Validation("reading_id, kind and message are required")
	}

	var reading models.Reading
	if err := s.DB.First(&reading, readingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("reading not found")
		}
		return nil, err
	}

	alert := models.Alert{
		ReadingID: readingID,
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
		Resolved:  false,
	}
	if err := s.DB.Create(&alert).Error; err != nil {
		return nil, err
	}

	return &alert, nil
}

// GetStatistics aggregates alerts by kind over the last N days. The scoped
// base query guarantees lectors only ever count their own alerts.
func (s *AlertService) GetStatistics(actor scope.Actor, days int) (*AlertStatistics, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	var byKind []AlertKindStats
	err := s.DB.Model(&models.Alert{}).Scopes(scope.Alerts(actor)).
		Select("alerts.kind AS kind, COUNT(*) AS total, " +
			"COUNT(*) FILTER (WHERE alerts.resolved) AS resolved, " +
			"COUNT(*) FILTER (WHERE NOT alerts.resolved) AS pending").
		Where("alerts.timestamp >= ?", since).
		Group("alerts.kind").
		Order("total DESC").
		Scan(&byKind).Error
	if err != nil {
		return nil, err
	}

	stats := &AlertStatistics{ByKind: byKind, PeriodDays: days}
	for _, row := range byKind {
		stats.Total += row.Total
		stats.Resolved += row.Resolved
		stats.Pending += row.Pending
	}

	return stats, nil
}

// canAccessAlert walks the alert -> reading -> meter ownership chain.
func (s *AlertService) canAccessAlert(actor scope.Actor, alert *models.Alert) bool {
	if actor.IsAdmin() {
		return true
	}
	if alert.Reading == nil || alert.Reading.Meter == nil {
		return false
	}
	return alert.Reading.Meter.OwnedBy(actor.UserID)
}

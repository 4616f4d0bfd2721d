package services

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/config"
	"github.com/Saurus21/agua-rural-api/models"
	"github.com/Saurus21/agua-rural-api/scope"
)

// DailyConsumption is one day's bucket in the consumption-per-day series.
type DailyConsumption struct {
	Day          string   `json:"day"`
	ReadingCount int64    `json:"reading_count"`
	AvgValue     *float64 `json:"avg_consumption"`
	SumValue     float64  `json:"total_consumption"`
}

// ZoneStats is one zone's rollup in the admin dashboard.
type ZoneStats struct {
	ZoneID       uint     `json:"zone_id"`
	ZoneName     string   `json:"zone_name"`
	Comuna       string   `json:"comuna"`
	UserCount    int64    `json:"user_count"`
	MeterCount   int64    `json:"meter_count"`
	ReadingCount int64    `json:"reading_count"`
	AvgValue     *float64 `json:"avg_consumption"`
	SumValue     float64  `json:"total_consumption"`
}

// DashboardStatistics is the full dashboard payload. Reading totals cover
// the requested period, not all time.
type DashboardStatistics struct {
	TotalMeters      int64              `json:"total_meters"`
	TotalReadings    int64              `json:"total_readings"`
	TotalConsumption float64            `json:"total_consumption"`
	TotalUsers       *int64             `json:"total_users,omitempty"`
	PendingAlerts    int64              `json:"pending_alerts"`
	RecentReadings   []models.Reading   `json:"recent_readings"`
	RecentAlerts     []models.Alert     `json:"recent_alerts"`
	ConsumptionByDay []DailyConsumption `json:"consumption_by_day"`
	AlertsByKind     []AlertKindStats   `json:"alerts_by_kind"`
	Zones            []ZoneStats        `json:"zones,omitempty"`
	PeriodDays       int                `json:"period_days"`
}

// DashboardSummary is the lightweight today-at-a-glance payload. It is cheap
// enough to cache aggressively.
type DashboardSummary struct {
	ReadingsToday int64     `json:"readings_today"`
	AlertsToday   int64     `json:"alerts_today"`
	PendingAlerts int64     `json:"pending_alerts"`
	ActiveMeters  int64     `json:"active_meters"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// InterfaceDashboardService defines the dashboard operations.
type InterfaceDashboardService interface {
	GetStatistics(actor scope.Actor, days int) (*DashboardStatistics, error)
	GetSummary(actor scope.Actor) (*DashboardSummary, error)
	GetConsumptionByZone(actor scope.Actor, days int) ([]ZoneStats, error)
}

// DashboardService aggregates readings and alerts into dashboard views.
type DashboardService struct {
	DB     *gorm.DB
	Config *config.Config
	Redis  InterfaceRedisService
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(db *gorm.DB, cfg *config.Config, redis InterfaceRedisService) *DashboardService {
	return &DashboardService{DB: db, Config: cfg, Redis: redis}
}

const (
	defaultDashboardDays = 30
	summaryCacheTTL      = 60 * time.Second
)

// GetStatistics assembles the dashboard for the actor. Lectors see only
// their own meters; the user total and per-zone breakdown are admin-only.
func (s *DashboardService) GetStatistics(actor scope.Actor, days int) (*DashboardStatistics, error) {
	if days <= 0 {
		days = defaultDashboardDays
	}
	since := time.Now().AddDate(0, 0, -days)

	stats := &DashboardStatistics{PeriodDays: days}

	if err := s.DB.Model(&models.Meter{}).Scopes(scope.Meters(actor)).
		Where("meters.active = ?", true).Count(&stats.TotalMeters).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Reading{}).Scopes(scope.Readings(actor)).
		Where("readings.timestamp >= ?", since).
		Count(&stats.TotalReadings).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Reading{}).Scopes(scope.Readings(actor)).
		Select("COALESCE(ROUND(SUM(readings.value)::numeric, 2), 0)").
		Where("readings.timestamp >= ?", since).
		Scan(&stats.TotalConsumption).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Alert{}).Scopes(scope.Alerts(actor)).
		Where("alerts.resolved = ?", false).Count(&stats.PendingAlerts).Error; err != nil {
		return nil, err
	}

	if actor.IsAdmin() {
		var totalUsers int64
		if err := s.DB.Model(&models.User{}).Where("active = ?", true).Count(&totalUsers).Error; err != nil {
			return nil, err
		}
		stats.TotalUsers = &totalUsers

		zones, err := s.zoneBreakdown(since)
		if err != nil {
			return nil, err
		}
		stats.Zones = zones
	}

	if err := s.DB.Scopes(scope.Readings(actor)).
		Preload("Meter").
		Order("readings.timestamp DESC").Limit(5).
		Find(&stats.RecentReadings).Error; err != nil {
		return nil, err
	}

	if err := s.DB.Scopes(scope.Alerts(actor)).
		Where("alerts.resolved = ?", false).
		Preload("Reading.Meter").
		Order("alerts.timestamp DESC").Limit(5).
		Find(&stats.RecentAlerts).Error; err != nil {
		return nil, err
	}

	if err := s.DB.Model(&models.Reading{}).Scopes(scope.Readings(actor)).
		Select("TO_CHAR(readings.timestamp, 'YYYY-MM-DD') AS day, " +
			"COUNT(readings.id) AS reading_count, " +
			"ROUND(AVG(readings.value)::numeric, 2) AS avg_value, " +
			"ROUND(SUM(readings.value)::numeric, 2) AS sum_value").
		Where("readings.timestamp >= ?", since).
		Group("day").Order("day").
		Scan(&stats.ConsumptionByDay).Error; err != nil {
		return nil, err
	}

	if err := s.DB.Model(&models.Alert{}).Scopes(scope.Alerts(actor)).
		Select("alerts.kind AS kind, COUNT(*) AS total, " +
			"COUNT(*) FILTER (WHERE alerts.resolved) AS resolved, " +
			"COUNT(*) FILTER (WHERE NOT alerts.resolved) AS pending").
		Where("alerts.timestamp >= ?", since).
		Group("alerts.kind").Order("total DESC").
		Scan(&stats.AlertsByKind).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// GetSummary returns today's counters, served from redis when fresh. Cache
// keys are per-actor so lector summaries never leak across accounts.
func (s *DashboardService) GetSummary(actor scope.Actor) (*DashboardSummary, error) {
	cacheKey := fmt.Sprintf("dashboard:summary:%d", actor.UserID)

	if s.Redis != nil {
		var cached DashboardSummary
		if found, err := s.Redis.GetJSON(cacheKey, &cached); err != nil {
			zap.L().Warn("summary cache read failed", zap.Error(err))
		} else if found {
			return &cached, nil
		}
	}

	now := time.Now()
	today := startOfDay(now)
	summary := &DashboardSummary{GeneratedAt: now}

	if err := s.DB.Model(&models.Reading{}).Scopes(scope.Readings(actor)).
		Where("readings.timestamp >= ?", today).Count(&summary.ReadingsToday).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Alert{}).Scopes(scope.Alerts(actor)).
		Where("alerts.timestamp >= ?", today).Count(&summary.AlertsToday).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Alert{}).Scopes(scope.Alerts(actor)).
		Where("alerts.resolved = ?", false).Count(&summary.PendingAlerts).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Meter{}).Scopes(scope.Meters(actor)).
		Where("meters.active = ?", true).Count(&summary.ActiveMeters).Error; err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if err := s.Redis.SetJSON(cacheKey, summary, summaryCacheTTL); err != nil {
			zap.L().Warn("summary cache write failed", zap.Error(err))
		}
	}

	return summary, nil
}

// GetConsumptionByZone returns the per-zone consumption rollup. Admin-only.
func (s *DashboardService) GetConsumptionByZone(actor scope.Actor, days int) ([]ZoneStats, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("only administrators can view zone consumption")
	}
	if days <= 0 {
		days = defaultDashboardDays
	}
	return s.zoneBreakdown(time.Now().AddDate(0, 0, -days))
}

// startOfDay returns midnight of t's calendar day in t's own zone, so the
// "today" counters roll over with the local clock rather than with UTC.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// zoneBreakdown aggregates meters, users and readings per zone since the
// given instant. Zones without readings still appear with zero counts.
func (s *DashboardService) zoneBreakdown(since time.Time) ([]ZoneStats, error) {
	var zones []ZoneStats
	err := s.DB.Model(&models.Zone{}).
		Select("zones.id AS zone_id, zones.name AS zone_name, zones.comuna AS comuna, "+
			"COUNT(DISTINCT users.id) AS user_count, "+
			"COUNT(DISTINCT meters.id) AS meter_count, "+
			"COUNT(readings.id) AS reading_count, "+
			"ROUND(AVG(readings.value)::numeric, 2) AS avg_value, "+
			"COALESCE(ROUND(SUM(readings.value)::numeric, 2), 0) AS sum_value").
		Joins("LEFT JOIN users ON users.zone_id = zones.id AND users.active = true").
		Joins("LEFT JOIN meters ON meters.user_id = users.id AND meters.active = true").
		Joins("LEFT JOIN readings ON readings.meter_id = meters.id AND readings.timestamp >= ?", since).
		Group("zones.id, zones.name, zones.comuna").
		Order("zones.name").
		Scan(&zones).Error
	if err != nil {
		return nil, err
	}
	return zones, nil
}

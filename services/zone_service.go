package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/config"
	"github.com/Saurus21/agua-rural-api/models"
)

// ZoneWithStats is a zone together with its membership counts.
type ZoneWithStats struct {
	models.Zone
	UserCount  int64 `json:"user_count"`
	MeterCount int64 `json:"meter_count"`
}

// ZoneInput carries the mutable fields of a zone.
type ZoneInput struct {
	Name   string `json:"name"`
	Comuna string `json:"comuna"`
	Region string `json:"region"`
}

// InterfaceZoneService defines the zone management operations.
type InterfaceZoneService interface {
	GetZones(page, limit int) ([]ZoneWithStats, int64, error)
	GetZoneByID(id uint) (*models.Zone, error)
	CreateZone(input ZoneInput) (*models.Zone, error)
	UpdateZone(id uint, input ZoneInput) (*models.Zone, error)
}

// ZoneService manages rural zones. All operations are admin-only; the
// route layer enforces the role before calls reach here.
type ZoneService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewZoneService creates a new zone service.
func NewZoneService(db *gorm.DB, cfg *config.Config) *ZoneService {
	return &ZoneService{DB: db, Config: cfg}
}

// GetZones lists zones with user and meter counts, paginated.
func (s *ZoneService) GetZones(page, limit int) ([]ZoneWithStats, int64, error) {
	var total int64
	if err := s.DB.Model(&models.Zone{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var zones []ZoneWithStats
	offset := (page - 1) * limit
	err := s.DB.Model(&models.Zone{}).
		Select("zones.*, COUNT(DISTINCT users.id) AS user_count, COUNT(DISTINCT meters.id) AS meter_count").
		Joins("LEFT JOIN users ON users.zone_id = zones.id AND users.active = true").
		Joins("LEFT JOIN meters ON meters.user_id = users.id AND meters.active = true").
		Group("zones.id").
		Order("zones.name").
		Limit(limit).Offset(offset).
		Scan(&zones).Error
	if err != nil {
		return nil, 0, err
	}

	return zones, total, nil
}

// GetZoneByID returns a zone with its active users preloaded.
func (s *ZoneService) GetZoneByID(id uint) (*models.Zone, error) {
	var zone models.Zone
	err := s.DB.Preload("Users", "active = ?", true).First(&zone, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("zone not found")
	}
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

// CreateZone registers a new zone. Names are unique within a comuna.
func (s *ZoneService) CreateZone(input ZoneInput) (*models.Zone, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperrors.Validation("zone name is required")
	}

	var count int64
	if err := s.DB.Model(&models.Zone{}).
		Where("name = ? AND comuna = ?", input.Name, input.Comuna).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperrors.Conflict("a zone with that name already exists in the comuna")
	}

	zone := models.Zone{
		Name:   input.Name,
		Comuna: input.Comuna,
		Region: input.Region,
	}
	if err := s.DB.Create(&zone).Error; err != nil {
		return nil, err
	}
	return &zone, nil
}

// UpdateZone modifies a zone's attributes.
func (s *ZoneService) UpdateZone(id uint, input ZoneInput) (*models.Zone, error) {
	var zone models.Zone
	err := s.DB.First(&zone, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("zone not found")
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(input.Name); name != "" && name != zone.Name {
		updates["name"] = name
	}
	if input.Comuna != "" {
		updates["comuna"] = input.Comuna
	}
	if input.Region != "" {
		updates["region"] = input.Region
	}

	if len(updates) > 0 {
		if err := s.DB.Model(&zone).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &zone, nil
}

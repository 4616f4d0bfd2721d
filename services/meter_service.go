package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/config"
	"github.com/Saurus21/agua-rural-api/models"
	"github.com/Saurus21/agua-rural-api/scope"
)

// MeterFilter narrows meter listings.
type MeterFilter struct {
	UserID *uint
	Active *bool
	Serial string
}

// InterfaceMeterService defines the meter operations.
type InterfaceMeterService interface {
	GetMeters(actor scope.Actor, page, limit int, filter MeterFilter) ([]models.Meter, int64, error)
	GetMeterByID(actor scope.Actor, id uint) (*models.Meter, []models.Reading, error)
	CreateMeter(actor scope.Actor, meter *models.Meter) error
	UpdateMeter(actor scope.Actor, id uint, updates map[string]interface{}) (*models.Meter, error)
	DeactivateMeter(actor scope.Actor, id uint) error
	GetMeterReadings(actor scope.Actor, meterID uint, page, limit int) ([]models.Reading, int64, error)
	LastReading(meterID uint) (*models.Reading, error)
}

// MeterService manages meters and their ownership.
type MeterService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewMeterService creates a new meter service.
func NewMeterService(db *gorm.DB, cfg *config.Config) *MeterService {
	return &MeterService{DB: db, Config: cfg}
}

// GetMeters lists meters with pagination. The same scoped query backs both
// the page and the total count.
func (s *MeterService) GetMeters(actor scope.Actor, page, limit int, filter MeterFilter) ([]models.Meter, int64, error) {
	query := s.DB.Model(&models.Meter{}).Scopes(scope.Meters(actor))
	if filter.UserID != nil {
		query = query.Where("meters.user_id = ?", *filter.UserID)
	}
	if filter.Active != nil {
		query = query.Where("meters.active = ?", *filter.Active)
	}
	if filter.Serial != "" {
		query = query.Where("meters.serial ILIKE ?", "%"+filter.Serial+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var meters []models.Meter
	offset := (page - 1) * limit
	if err := query.Preload("User").Order("meters.serial").Limit(limit).Offset(offset).Find(&meters).Error; err != nil {
		return nil, 0, err
	}

	return meters, total, nil
}

// GetMeterByID returns a meter with its owner and the last 10 readings.
// A meter that exists but is not owned by the actor yields 403; a meter
// that does not exist yields 404.
func (s *MeterService) GetMeterByID(actor scope.Actor, id uint) (*models.Meter, []models.Reading, error) {
	var meter models.Meter
	if err := s.DB.Preload("User").First(&meter, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("meter not found")
		}
		return nil, nil, err
	}

	if !scope.CanAccessMeter(actor, &meter) {
		return nil, nil, apperrors.Forbidden("you do not have permission to access this meter")
	}

	var readings []models.Reading
	if err := s.DB.Where("meter_id = ?", id).Order("timestamp DESC").Limit(10).Find(&readings).Error; err != nil {
		return nil, nil, err
	}

	return &meter, readings, nil
}

// CreateMeter creates a meter. Serial numbers are globally unique; lectors
// can only assign meters to themselves.
func (s *MeterService) CreateMeter(actor scope.Actor, meter *models.Meter) error {
	if meter.Serial == "" || meter.Location == "" {
		return apperrors.Validation("serial and location are required")
	}

	var count int64
	if err := s.DB.Model(&models.Meter{}).Where("serial = ?", meter.Serial).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperrors.Conflict("a meter with that serial already exists")
	}

	if !actor.IsAdmin() {
		owner := actor.UserID
		meter.UserID = &owner
	}

	if meter.UserID != nil {
		var user models.User
		if err := s.DB.First(&user, *meter.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("assigned user not found")
			}
			return err
		}
	}

	meter.Active = true
	return s.DB.Create(meter).Error
}

// UpdateMeter updates serial/location; only admins may reassign ownership.
func (s *MeterService) UpdateMeter(actor scope.Actor, id uint, updates map[string]interface{}) (*models.Meter, error) {
	var meter models.Meter
	if err := s.DB.First(&meter, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("meter not found")
		}
		return nil, err
	}

	if !scope.CanAccessMeter(actor, &meter) {
		return nil, apperrors.Forbidden("you do not have permission to update this meter")
	}

	if serial, ok := updates["serial"].(string); ok && serial != meter.Serial {
		var count int64
		if err := s.DB.Model(&models.Meter{}).Where("serial = ? AND id != ?", serial, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, apperrors.Conflict("a meter with that serial already exists")
		}
	}

	if _, ok := updates["user_id"]; ok && !actor.IsAdmin() {
		delete(updates, "user_id")
	}

	if err := s.DB.Model(&meter).Updates(updates).Error; err != nil {
		return nil, err
	}

	if err := s.DB.Preload("User").First(&meter, id).Error; err != nil {
		return nil, err
	}
	return &meter, nil
}

// DeactivateMeter soft-deletes a meter. The row and its readings remain.
func (s *MeterService) DeactivateMeter(actor scope.Actor, id uint) error {
	var meter models.Meter
	if err := s.DB.First(&meter, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("meter not found")
		}
		return err
	}

	if !scope.CanAccessMeter(actor, &meter) {
		return apperrors.Forbidden("you do not have permission to delete this meter")
	}

	return s.DB.Model(&meter).Update("active", false).Error
}

// GetMeterReadings lists a meter's readings newest first with pagination.
func (s *MeterService) GetMeterReadings(actor scope.Actor, meterID uint, page, limit int) ([]models.Reading, int64, error) {
	var meter models.Meter
	if err := s.DB.First(&meter, meterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, apperrors.NotFound("meter not found")
		}
		return nil, 0, err
	}

	if !scope.CanAccessMeter(actor, &meter) {
		return nil, 0, apperrors.Forbidden("you do not have permission to view these readings")
	}

	query := s.DB.Model(&models.Reading{}).Where("meter_id = ?", meterID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var readings []models.Reading
	offset := (page - 1) * limit
	if err := query.Order("timestamp DESC").Limit(limit).Offset(offset).Find(&readings).Error; err != nil {
		return nil, 0, err
	}

	return readings, total, nil
}

// LastReading returns the most recent reading of a meter, or nil.
func (s *MeterService) LastReading(meterID uint) (*models.Reading, error) {
	var reading models.Reading
	err := s.DB.Where("meter_id = ?", meterID).Order("timestamp DESC").First(&reading).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

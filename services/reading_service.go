package services

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Saurus21/agua-rural-api/anomaly"
	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/config"
	"github.com/Saurus21/agua-rural-api/models"
	"github.com/Saurus21/agua-rural-api/scope"
)

// ReadingFilter narrows reading listings.
type ReadingFilter struct {
	MeterID   *uint
	Synced    *bool
	StartDate *time.Time
	EndDate   *time.Time
}

// ReadingInput is the payload for creating a single reading.
type ReadingInput struct {
	MeterID     uint     `json:"meter_id"`
	Value       *float64 `json:"value"`
	Observation string   `json:"observation"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// SyncDetail reports the outcome of one item of a bulk sync.
type SyncDetail struct {
	Reading interface{} `json:"reading"`
	Status  string      `json:"status,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SyncResult summarizes a bulk sync request.
type SyncResult struct {
	Synced  int          `json:"synced"`
	Failed  int          `json:"failed"`
	Details []SyncDetail `json:"details"`
}

// InterfaceReadingService defines the reading operations.
type InterfaceReadingService interface {
	GetReadings(actor scope.Actor, page, limit int, filter ReadingFilter) ([]models.Reading, int64, error)
	GetReadingByID(actor scope.Actor, id uint) (*models.Reading, error)
	CreateReading(actor scope.Actor, input ReadingInput) (*models.Reading, error)
	SyncReadings(actor scope.Actor, items []ReadingInput) SyncResult
}

// ReadingService persists readings and runs anomaly detection on each new
// one. Detection is a best-effort post-commit step: its failures are logged
// and never surfaced as a creation failure.
type ReadingService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewReadingService creates a new reading service.
func NewReadingService(db *gorm.DB, cfg *config.Config) *ReadingService {
	return &ReadingService{DB: db, Config: cfg}
}

// GetReadings lists readings newest first with pagination. Page rows and the
// total count share the same scoped query.
func (s *ReadingService) GetReadings(actor scope.Actor, page, limit int, filter ReadingFilter) ([]models.Reading, int64, error) {
	query := s.DB.Model(&models.Reading{}).Scopes(scope.Readings(actor))
	if filter.MeterID != nil {
		query = query.Where("readings.meter_id = ?", *filter.MeterID)
	}
	if filter.Synced != nil {
		query = query.Where("readings.synced = ?", *filter.Synced)
	}
	if filter.StartDate != nil {
		query = query.Where("readings.timestamp >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("readings.timestamp <= ?", *filter.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var readings []models.Reading
	offset := (page - 1) * limit
	err := query.Preload("Meter").Preload("Meter.User").
		Order("readings.timestamp DESC").Limit(limit).Offset(offset).Find(&readings).Error
	if err != nil {
		return nil, 0, err
	}

	return readings, total, nil
}

// GetReadingByID returns one reading with its meter and owner.
func (s *ReadingService) GetReadingByID(actor scope.Actor, id uint) (*models.Reading, error) {
	var reading models.Reading
	if err := s.DB.Preload("Meter").Preload("Meter.User").First(&reading, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("reading not found")
		}
		return nil, err
	}

	if !actor.IsAdmin() && (reading.Meter == nil || !reading.Meter.OwnedBy(actor.UserID)) {
		return nil, apperrors.Forbidden("you do not have permission to view this reading")
	}

	return &reading, nil
}

// CreateReading validates, persists a reading on a meter the actor owns and
// runs anomaly detection against the meter's recent history. The history is
// read before the insert so the new reading can never bias its own
// comparison window.
func (s *ReadingService) CreateReading(actor scope.Actor, input ReadingInput) (*models.Reading, error) {
	if input.MeterID == 0 || input.Value == nil {
		return nil, apperrors.Validation("meter_id and value are required")
	}
	if *input.Value < 0 {
		return nil, apperrors.Validation("value cannot be negative")
	}

	var meter models.Meter
	if err := s.DB.First(&meter, input.MeterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("meter not found")
		}
		return nil, err
	}
	if !scope.CanAccessMeter(actor, &meter) {
		return nil, apperrors.Forbidden("you do not have permission to create readings on this meter")
	}

	priors, err := s.recentValues(input.MeterID)
	if err != nil {
		return nil, err
	}

	reading := models.Reading{
		MeterID:     input.MeterID,
		Value:       *input.Value,
		Timestamp:   time.Now(),
		Observation: input.Observation,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Synced:      true, // created through the online API
	}
	if err := s.DB.Create(&reading).Error; err != nil {
		return nil, err
	}

	s.raiseAlerts(&reading, priors)

	return &reading, nil
}

// SyncReadings imports a batch of offline readings, one item at a time. Each
// item is validated and permission-checked on its own; one bad item does not
// abort the batch.
func (s *ReadingService) SyncReadings(actor scope.Actor, items []ReadingInput) SyncResult {
	result := SyncResult{Details: []SyncDetail{}}

	for _, item := range items {
		reading, err := s.CreateReading(actor, item)
		if err != nil {
			result.Failed++
			result.Details = append(result.Details, SyncDetail{
				Reading: item,
				Error:   apperrors.Message(err),
			})
			continue
		}

		result.Synced++
		result.Details = append(result.Details, SyncDetail{
			Reading: reading,
			Status:  "synced",
		})
	}

	return result
}

// recentValues returns the values of the most recent prior readings for a
// meter, newest first, limited to the detector's history window.
func (s *ReadingService) recentValues(meterID uint) ([]float64, error) {
	var values []float64
	err := s.DB.Model(&models.Reading{}).
		Where("meter_id = ?", meterID).
		Order("timestamp DESC").
		Limit(anomaly.HistoryWindow).
		Pluck("value", &values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}

// raiseAlerts persists the detector's candidates for a committed reading.
// A failed insert is logged and skipped: the reading is already durable and
// alerting is at-least-once, not exactly-once.
func (s *ReadingService) raiseAlerts(reading *models.Reading, priors []float64) {
	for _, candidate := range anomaly.Detect(reading.Value, priors) {
		alert := models.Alert{
			ReadingID: reading.ID,
			Kind:      candidate.Kind,
			Message:   candidate.Message,
			Timestamp: time.Now(),
			Resolved:  false,
		}
		if err := s.DB.Create(&alert).Error; err != nil {
			zap.L().Error("failed to persist alert",
				zap.Uint("reading_id", reading.ID),
				zap.String("kind", candidate.Kind),
				zap.Error(err),
			)
		}
	}
}

package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/config"
	"github.com/Saurus21/agua-rural-api/models"
	"github.com/Saurus21/agua-rural-api/scope"
	"github.com/Saurus21/agua-rural-api/utils"
)

// InterfaceUserService defines the user account operations.
type InterfaceUserService interface {
	Authenticate(email, password string) (*models.User, error)
	GetUsers(actor scope.Actor, page, limit int, zoneID *uint, active *bool) ([]models.User, int64, error)
	GetUserByID(actor scope.Actor, id uint) (*models.User, error)
	CreateUser(user *models.User, plainPassword string) error
	UpdateUser(actor scope.Actor, id uint, updates map[string]interface{}) (*models.User, error)
	DeactivateUser(actor scope.Actor, id uint) error
	GetUserMeters(actor scope.Actor, id uint) ([]models.Meter, error)
	ChangePassword(userID uint, currentPassword, newPassword string) error
}

// UserService manages user accounts and credentials.
type UserService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewUserService creates a new user service.
func NewUserService(db *gorm.DB, cfg *config.Config) *UserService {
	return &UserService{DB: db, Config: cfg}
}

// Authenticate verifies credentials for login. Inactive users cannot log in;
// both unknown email and bad password map to the same error so the response
// does not disclose which one failed.
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}

	if !user.Active {
		return nil, apperrors.ErrUnauthorized
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperrors.ErrUnauthorized
	}

	now := time.Now()
	if err := s.DB.Model(&user).Update("last_login_at", now).Error; err != nil {
		// Login bookkeeping must not fail the login itself.
		user.LastLoginAt = nil
	} else {
		user.LastLoginAt = &now
	}

	return &user, nil
}

// GetUsers lists users with pagination. Admin-only at the route level; the
// scope is applied anyway so the filter and the count always agree.
func (s *UserService) GetUsers(actor scope.Actor, page, limit int, zoneID *uint, active *bool) ([]models.User, int64, error) {
	query := s.DB.Model(&models.User{}).Scopes(scope.Users(actor))
	if zoneID != nil {
		query = query.Where("zone_id = ?", *zoneID)
	}
	if active != nil {
		query = query.Where("active = ?", *active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	offset := (page - 1) * limit
	if err := query.Preload("Zone").Order("users.id").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// GetUserByID returns one user. Non-admins may only fetch themselves.
func (s *UserService) GetUserByID(actor scope.Actor, id uint) (*models.User, error) {
	if !scope.CanAccessUser(actor, id) {
		return nil, apperrors.Forbidden("you do not have permission to view this user")
	}

	var user models.User
	if err := s.DB.Preload("Zone").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a user, hashing the password. Email must be unique.
func (s *UserService) CreateUser(user *models.User, plainPassword string) error {
	if user.Name == "" || user.Email == "" || plainPassword == "" {
		return apperrors.Validation("name, email and password are required")
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	var count int64
	if err := s.DB.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperrors.Conflict("email is already in use")
	}

	hash, err := utils.HashPassword(plainPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if user.Role == "" {
		user.Role = models.RoleLector
	}
	user.Active = true

	return s.DB.Create(user).Error
}

// UpdateUser updates a user record. Non-admins may only update their own
// name and phone; role, zone and active state are admin-only fields.
func (s *UserService) UpdateUser(actor scope.Actor, id uint, updates map[string]interface{}) (*models.User, error) {
	if !scope.CanAccessUser(actor, id) {
		return nil, apperrors.Forbidden("you do not have permission to update this user")
	}

	var user models.User
	if err := s.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, err
	}

	allowed := map[string]bool{"name": true, "phone": true}
	if actor.IsAdmin() {
		allowed["zone_id"] = true
		allowed["active"] = true
		allowed["role"] = true
	}
	filtered := make(map[string]interface{}, len(updates))
	for key, value := range updates {
		if allowed[key] {
			filtered[key] = value
		}
	}
	if len(filtered) == 0 {
		return &user, nil
	}

	if err := s.DB.Model(&user).Updates(filtered).Error; err != nil {
		return nil, err
	}

	if err := s.DB.Preload("Zone").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// DeactivateUser soft-deletes a user. Admins cannot deactivate themselves.
func (s *UserService) DeactivateUser(actor scope.Actor, id uint) error {
	if actor.UserID == id {
		return apperrors.Validation("you cannot deactivate your own user")
	}

	var user models.User
	if err := s.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("user not found")
		}
		return err
	}

	return s.DB.Model(&user).Update("active", false).Error
}

// GetUserMeters lists the active meters owned by a user.
func (s *UserService) GetUserMeters(actor scope.Actor, id uint) ([]models.Meter, error) {
	if !scope.CanAccessUser(actor, id) {
		return nil, apperrors.Forbidden("you do not have permission to view these meters")
	}

	var meters []models.Meter
	if err := s.DB.Where("user_id = ? AND active = ?", id, true).Order("serial").Find(&meters).Error; err != nil {
		return nil, err
	}
	return meters, nil
}

// ChangePassword verifies the current password and replaces it.
func (s *UserService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	if newPassword == "" {
		return apperrors.Validation("new password is required")
	}

	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		return err
	}

	if !utils.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperrors.Validation("current password is incorrect")
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.DB.Model(&user).Update("password_hash", hash).Error
}

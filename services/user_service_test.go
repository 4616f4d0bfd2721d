package services

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/config"
	"github.com/Saurus21/agua-rural-api/models"
	"github.com/Saurus21/agua-rural-api/scope"
	"github.com/Saurus21/agua-rural-api/utils"
)

func userInput(email string) *models.User {
	return &models.User{Name: "Test User", Email: email}
}

func newMockedUserService(t *testing.T) (*UserService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewUserService(db, &config.Config{EnvType: "development"}), mock, sqlDB
}

func userRow(t *testing.T, id uint, email, password string, active bool) *sqlmock.Rows {
	t.Helper()

	hash, err := utils.HashPassword(password)
	require.NoError(t, err)

	return sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "active"}).
		AddRow(id, "Test User", email, hash, "lector", active)
}

func TestAuthenticateSuccess(t *testing.T) {
	svc, mock, sqlDB := newMockedUserService(t)
	defer sqlDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(userRow(t, 7, "maria@aguarural.cl", "secret123", true))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "last_login_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := svc.Authenticate("  MARIA@aguarural.cl ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)
	assert.NotNil(t, user.LastLoginAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc, mock, sqlDB := newMockedUserService(t)
	defer sqlDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := svc.Authenticate("nobody@aguarural.cl", "whatever")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc, mock, sqlDB := newMockedUserService(t)
	defer sqlDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(userRow(t, 7, "maria@aguarural.cl", "secret123", true))

	_, err := svc.Authenticate("maria@aguarural.cl", "wrong-password")
	// Same error as an unknown email, so login responses do not reveal
	// which part of the credential failed.
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	svc, mock, sqlDB := newMockedUserService(t)
	defer sqlDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(userRow(t, 7, "maria@aguarural.cl", "secret123", false))

	_, err := svc.Authenticate("maria@aguarural.cl", "secret123")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestGetUserByIDForbiddenForOtherLector(t *testing.T) {
	svc, _, sqlDB := newMockedUserService(t)
	defer sqlDB.Close()

	lector := scope.Actor{UserID: 7, Role: "lector"}
	_, err := svc.GetUserByID(lector, 8)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	svc, mock, sqlDB := newMockedUserService(t)
	defer sqlDB.Close()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	user := userInput("maria@aguarural.cl")
	err := svc.CreateUser(user, "secret123")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCreateUserRequiresFields(t *testing.T) {
	svc, _, sqlDB := newMockedUserService(t)
	defer sqlDB.Close()

	err := svc.CreateUser(userInput(""), "secret123")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDeactivateUserRejectsSelf(t *testing.T) {
	svc, _, sqlDB := newMockedUserService(t)
	defer sqlDB.Close()

	admin := scope.Actor{UserID: 1, Role: "admin"}
	err := svc.DeactivateUser(admin, 1)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

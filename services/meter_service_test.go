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
	"github.com/Saurus21/agua-rural-api/scope"
)

func newMockedMeterService(t *testing.T) (*MeterService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewMeterService(db, &config.Config{EnvType: "development"}), mock, sqlDB
}

func TestDeactivateMeterByOwningLector(t *testing.T) {
	svc, mock, sqlDB := newMockedMeterService(t)
	defer sqlDB.Close()

	owner := scope.Actor{UserID: 7, Role: "lector"}

	mock.ExpectQuery(`SELECT \* FROM "meters"`).
		WillReturnRows(meterRows(owner.UserID))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "meters"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.DeactivateMeter(owner, 3)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateMeterForeignLectorForbidden(t *testing.T) {
	svc, mock, sqlDB := newMockedMeterService(t)
	defer sqlDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "meters"`).
		WillReturnRows(meterRows(99))

	err := svc.DeactivateMeter(scope.Actor{UserID: 7, Role: "lector"}, 3)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestDeactivateMeterNotFound(t *testing.T) {
	svc, mock, sqlDB := newMockedMeterService(t)
	defer sqlDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "meters"`).
		WillReturnError(gorm.ErrRecordNotFound)

	err := svc.DeactivateMeter(scope.Actor{UserID: 1, Role: "admin"}, 404)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

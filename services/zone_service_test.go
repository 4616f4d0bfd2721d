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
)

func newMockedZoneService(t *testing.T) (*ZoneService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewZoneService(db, &config.Config{EnvType: "development"}), mock, sqlDB
}

func TestCreateZoneRequiresName(t *testing.T) {
	svc, _, sqlDB := newMockedZoneService(t)
	defer sqlDB.Close()

	_, err := svc.CreateZone(ZoneInput{Name: "   "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateZoneRejectsDuplicateInComuna(t *testing.T) {
	svc, mock, sqlDB := newMockedZoneService(t)
	defer sqlDB.Close()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "zones" WHERE name = \$1 AND comuna = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := svc.CreateZone(ZoneInput{Name: "Los Aromos", Comuna: "San Fernando"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCreateZoneSuccess(t *testing.T) {
	svc, mock, sqlDB := newMockedZoneService(t)
	defer sqlDB.Close()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "zones" WHERE name = \$1 AND comuna = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "zones"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectCommit()

	zone, err := svc.CreateZone(ZoneInput{Name: " Los Aromos ", Comuna: "San Fernando", Region: "O'Higgins"})
	require.NoError(t, err)
	assert.Equal(t, uint(4), zone.ID)
	assert.Equal(t, "Los Aromos", zone.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetZoneByIDNotFound(t *testing.T) {
	svc, mock, sqlDB := newMockedZoneService(t)
	defer sqlDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "zones"`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := svc.GetZoneByID(99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

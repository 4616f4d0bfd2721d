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

func newMockedAlertService(t *testing.T) (*AlertService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewAlertService(db, &config.Config{EnvType: "development"}), mock, sqlDB
}

// Manual alerts are not limited to the kinds the detector raises.
func TestCreateAlertAcceptsCustomKind(t *testing.T) {
	svc, mock, sqlDB := newMockedAlertService(t)
	defer sqlDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "readings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "meter_id", "value"}).
			AddRow(12, 3, 450.0))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "alerts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	alert, err := svc.CreateAlert(12, "manual_inspection", "Possible tampering reported by neighbor")
	require.NoError(t, err)
	assert.Equal(t, "manual_inspection", alert.Kind)
	assert.False(t, alert.Resolved)
}

func TestCreateAlertUnknownReading(t *testing.T) {
	svc, mock, sqlDB := newMockedAlertService(t)
	defer sqlDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "readings"`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := svc.CreateAlert(999, "high_consumption", "spike")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateAlertRequiresFields(t *testing.T) {
	svc, _, sqlDB := newMockedAlertService(t)
	defer sqlDB.Close()

	_, err := svc.CreateAlert(0, "", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

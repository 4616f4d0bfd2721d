package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Saurus21/agua-rural-api/config"
	"github.com/Saurus21/agua-rural-api/scope"
)

func newCapturingDashboardService(t *testing.T) (*DashboardService, sqlmock.Sqlmock, *sql.DB, *[]string) {
	t.Helper()

	captured := &[]string{}
	matcher := sqlmock.QueryMatcherFunc(func(expectedSQL, actualSQL string) error {
		*captured = append(*captured, actualSQL)
		return nil
	})

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(matcher))
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewDashboardService(db, &config.Config{EnvType: "development"}, nil), mock, sqlDB, captured
}

func TestGetStatisticsDefaultsToThirtyDayWindow(t *testing.T) {
	svc, mock, sqlDB, captured := newCapturingDashboardService(t)
	defer sqlDB.Close()

	mock.ExpectQuery("").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(14))
	mock.ExpectQuery("").WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(321.5))
	mock.ExpectQuery("").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("").WillReturnRows(sqlmock.NewRows([]string{"day"}))
	mock.ExpectQuery("").WillReturnRows(sqlmock.NewRows([]string{"kind"}))

	stats, err := svc.GetStatistics(scope.Actor{UserID: 7, Role: "lector"}, 0)
	require.NoError(t, err)

	assert.Equal(t, 30, stats.PeriodDays)
	assert.Equal(t, int64(14), stats.TotalReadings)
	assert.InDelta(t, 321.5, stats.TotalConsumption, 0.001)

	// The reading total and consumption sum are bounded to the period.
	require.GreaterOrEqual(t, len(*captured), 3)
	assert.Contains(t, (*captured)[1], "readings.timestamp >=")
	assert.Contains(t, (*captured)[2], "readings.timestamp >=")
}

func TestStartOfDayKeepsTheLocalZone(t *testing.T) {
	chile := time.FixedZone("CLT", -4*60*60)
	moment := time.Date(2025, 6, 3, 22, 45, 10, 0, chile)

	day := startOfDay(moment)
	assert.True(t, time.Date(2025, 6, 3, 0, 0, 0, 0, chile).Equal(day))
	assert.Equal(t, chile, day.Location())
	// Truncating absolute time lands on the UTC boundary instead.
	assert.False(t, moment.Truncate(24*time.Hour).Equal(day))
}

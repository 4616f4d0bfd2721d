package services

import (
	"database/sql"
	"strings"
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

// newCapturingReportService records every SQL statement the service sends so
// tests can assert on the generated join set.
func newCapturingReportService(t *testing.T) (*ReportService, sqlmock.Sqlmock, *sql.DB, *[]string) {
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

	return NewReportService(db, &config.Config{EnvType: "development"}), mock, sqlDB, captured
}

func expectReportRecord(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery("").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()
}

func TestConsumptionReportJoinsMetersOncePerActor(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	for _, actor := range []scope.Actor{
		{UserID: 1, Role: "admin"},
		{UserID: 7, Role: "lector"},
	} {
		t.Run(actor.Role, func(t *testing.T) {
			svc, mock, sqlDB, captured := newCapturingReportService(t)
			defer sqlDB.Close()

			mock.ExpectQuery("").WillReturnRows(sqlmock.NewRows([]string{"serial"}))
			expectReportRecord(mock)

			_, _, _, err := svc.GenerateConsumptionReport(actor, ConsumptionReportParams{
				StartDate: start,
				EndDate:   end,
			})
			require.NoError(t, err)

			require.NotEmpty(t, *captured)
			query := (*captured)[0]
			assert.Equal(t, 1, strings.Count(query, "JOIN meters ON meters.id = readings.meter_id"), query)
			assert.Equal(t, 1, strings.Count(query, "LEFT JOIN users ON users.id = meters.user_id"), query)
			if actor.Role == "lector" {
				assert.Contains(t, query, "meters.user_id = $")
			}
		})
	}
}

func TestAlertReportJoinsReadingChainOncePerActor(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	for _, actor := range []scope.Actor{
		{UserID: 1, Role: "admin"},
		{UserID: 7, Role: "lector"},
	} {
		t.Run(actor.Role, func(t *testing.T) {
			svc, mock, sqlDB, captured := newCapturingReportService(t)
			defer sqlDB.Close()

			mock.ExpectQuery("").WillReturnRows(sqlmock.NewRows([]string{"kind"}))
			expectReportRecord(mock)

			_, _, _, err := svc.GenerateAlertReport(actor, AlertReportParams{
				StartDate: start,
				EndDate:   end,
			})
			require.NoError(t, err)

			require.NotEmpty(t, *captured)
			query := (*captured)[0]
			assert.Equal(t, 1, strings.Count(query, "JOIN readings ON readings.id = alerts.reading_id"), query)
			assert.Equal(t, 1, strings.Count(query, "JOIN meters ON meters.id = readings.meter_id"), query)
			if actor.Role == "lector" {
				assert.Contains(t, query, "meters.user_id = $")
			}
		})
	}
}

func sampleRows() []ConsumptionRow {
	avg1, avg2 := 120.5, 80.0
	min1, max1 := 100.0, 150.0
	min2, max2 := 60.0, 100.0
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	last := time.Date(2025, 3, 28, 9, 30, 0, 0, time.UTC)

	return []ConsumptionRow{
		{
			Serial:       "MED-001",
			Location:     `Sector "El Molino"`,
			UserName:     "María Soto",
			ZoneName:     "Los Aromos",
			TotalCount:   4,
			AvgValue:     &avg1,
			SumValue:     482.0,
			MinValue:     &min1,
			MaxValue:     &max1,
			FirstReading: &first,
			LastReading:  &last,
		},
		{
			Serial:     "MED-002",
			UserName:   "Pedro Rojas",
			ZoneName:   "Los Aromos",
			TotalCount: 2,
			AvgValue:   &avg2,
			SumValue:   160.0,
			MinValue:   &min2,
			MaxValue:   &max2,
		},
	}
}

func TestSummarizeConsumption(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	summary := summarizeConsumption(sampleRows(), start, end)

	assert.Equal(t, 2, summary.TotalMeters)
	assert.Equal(t, int64(6), summary.TotalReadings)
	assert.InDelta(t, 642.0, summary.TotalConsumption, 0.001)
	// Global average is the mean of the per-meter averages: (120.5+80)/2.
	require.NotNil(t, summary.GlobalAverage)
	assert.InDelta(t, 100.25, *summary.GlobalAverage, 0.001)
	assert.Equal(t, "2025-03-01", summary.StartDate)
	assert.Equal(t, "2025-03-31", summary.EndDate)
}

func TestSummarizeConsumptionEmpty(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	summary := summarizeConsumption(nil, start, end)

	assert.Equal(t, 0, summary.TotalMeters)
	assert.Equal(t, int64(0), summary.TotalReadings)
	assert.Nil(t, summary.GlobalAverage)
}

func TestFormatConsumptionCSV(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	rows := sampleRows()
	summary := summarizeConsumption(rows, start, end)

	csv := FormatConsumptionCSV(rows, summary)
	lines := strings.Split(csv, "\n")

	// Header carries the 11 report columns.
	header := strings.Split(lines[0], ",")
	assert.Len(t, header, 11)
	assert.Equal(t, "Meter Serial", header[0])
	assert.Equal(t, "Last Reading", header[10])

	// Embedded quotes are doubled.
	assert.Contains(t, lines[1], `"Sector ""El Molino"""`)
	assert.Contains(t, lines[1], "482.00")
	assert.Contains(t, lines[1], "120.50")

	// Missing aggregates render as empty fields.
	assert.Contains(t, lines[2], `"MED-002"`)

	// Summary block.
	assert.Contains(t, csv, "RESUMEN GENERAL\n")
	assert.Contains(t, csv, "Total Meters,2\n")
	assert.Contains(t, csv, "Total Readings,6\n")
	assert.Contains(t, csv, "Total Consumption,642.00\n")
	assert.Contains(t, csv, "Global Average,100.25\n")
}

func TestBuildConsumptionWorkbook(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	rows := sampleRows()
	summary := summarizeConsumption(rows, start, end)

	workbook, err := BuildConsumptionWorkbook(rows, summary)
	require.NoError(t, err)
	defer workbook.Close()

	header, err := workbook.GetCellValue("Consumption", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Meter Serial", header)

	serial, err := workbook.GetCellValue("Consumption", "A2")
	require.NoError(t, err)
	assert.Equal(t, "MED-001", serial)

	// Summary block starts one blank row after the data.
	label, err := workbook.GetCellValue("Consumption", "A5")
	require.NoError(t, err)
	assert.Equal(t, "RESUMEN GENERAL", label)
}

func TestRoundTo2(t *testing.T) {
	assert.Equal(t, 100.25, roundTo2(100.2499999999))
	assert.Equal(t, 0.0, roundTo2(0))
	assert.Equal(t, 33.33, roundTo2(100.0/3))
}

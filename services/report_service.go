package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/config"
	"github.com/Saurus21/agua-rural-api/models"
	"github.com/Saurus21/agua-rural-api/scope"
)

// ConsumptionReportParams are the inputs of a consumption report.
type ConsumptionReportParams struct {
	StartDate time.Time
	EndDate   time.Time
	ZoneID    *uint // admin-only: zone-level aggregation
	UserID    *uint
	Format    string // "json", "csv" or "xlsx"
}

// ConsumptionRow is one meter's aggregate within the report period.
type ConsumptionRow struct {
	MeterID      uint       `json:"meter_id"`
	Serial       string     `json:"serial"`
	Location     string     `json:"location"`
	UserID       *uint      `json:"user_id"`
	UserName     string     `json:"user_name"`
	ZoneID       *uint      `json:"zone_id"`
	ZoneName     string     `json:"zone_name"`
	Comuna       string     `json:"comuna"`
	Region       string     `json:"region"`
	TotalCount   int64      `json:"total_readings"`
	AvgValue     *float64   `json:"avg_consumption"`
	SumValue     float64    `json:"total_consumption"`
	MinValue     *float64   `json:"min_consumption"`
	MaxValue     *float64   `json:"max_consumption"`
	FirstReading *time.Time `json:"first_reading"`
	LastReading  *time.Time `json:"last_reading"`
}

// ConsumptionSummary is the trailing rollup of a consumption report. The
// global average is the mean of the per-meter averages, not a re-weighted
// mean over raw readings; downstream consumers depend on this semantic.
type ConsumptionSummary struct {
	TotalMeters      int      `json:"total_meters"`
	TotalReadings    int64    `json:"total_readings"`
	TotalConsumption float64  `json:"total_consumption"`
	GlobalAverage    *float64 `json:"global_average"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
}

// AlertReportParams are the inputs of an alert report.
type AlertReportParams struct {
	StartDate time.Time
	EndDate   time.Time
	Kind      string
}

// AlertReportRow is one alert within the report period.
type AlertReportRow struct {
	Kind         string    `json:"kind"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	Resolved     bool      `json:"resolved"`
	ReadingValue float64   `json:"reading_value"`
	MeterSerial  string    `json:"meter_serial"`
	UserName     string    `json:"user_name"`
	ZoneName     string    `json:"zone_name"`
}

// AlertReportSummary rolls up an alert report by kind and resolution state.
type AlertReportSummary struct {
	Total     int64                     `json:"total"`
	Resolved  int64                     `json:"resolved"`
	Pending   int64                     `json:"pending"`
	ByKind    map[string]AlertKindStats `json:"by_kind"`
	StartDate string                    `json:"start_date"`
	EndDate   string                    `json:"end_date"`
}

// InterfaceReportService defines the reporting operations.
type InterfaceReportService interface {
	GetReports(actor scope.Actor, page, limit int, reportType string) ([]models.Report, int64, error)
	GenerateConsumptionReport(actor scope.Actor, params ConsumptionReportParams) (*models.Report, []ConsumptionRow, *ConsumptionSummary, error)
	GenerateAlertReport(actor scope.Actor, params AlertReportParams) (*models.Report, []AlertReportRow, *AlertReportSummary, error)
}

// ReportService computes consumption and alert reports and records each
// generation as an immutable audit row.
type ReportService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewReportService creates a new report service.
func NewReportService(db *gorm.DB, cfg *config.Config) *ReportService {
	return &ReportService{DB: db, Config: cfg}
}

// GetReports lists report history with pagination, scoped to the actor.
func (s *ReportService) GetReports(actor scope.Actor, page, limit int, reportType string) ([]models.Report, int64, error) {
	query := s.DB.Model(&models.Report{}).Scopes(scope.Reports(actor))
	if reportType != "" {
		query = query.Where("reports.report_type = ?", reportType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []models.Report
	offset := (page - 1) * limit
	if err := query.Order("reports.generated_at DESC").Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}

// GenerateConsumptionReport aggregates readings per meter over a period and
// persists the generation record. Zone filtering is admin-only: lectors
// asking for zone-level aggregation are rejected, not silently scoped.
func (s *ReportService) GenerateConsumptionReport(actor scope.Actor, params ConsumptionReportParams) (*models.Report, []ConsumptionRow, *ConsumptionSummary, error) {
	if params.StartDate.IsZero() || params.EndDate.IsZero() {
		return nil, nil, nil, apperrors.Validation("start_date and end_date are required")
	}
	if params.ZoneID != nil && !actor.IsAdmin() {
		return nil, nil, nil, apperrors.Forbidden("only administrators can aggregate by zone")
	}

	query := s.DB.Model(&models.Reading{}).
		Select("meters.id AS meter_id, meters.serial AS serial, meters.location AS location, " +
			"users.id AS user_id, users.name AS user_name, " +
			"zones.id AS zone_id, zones.name AS zone_name, zones.comuna AS comuna, zones.region AS region, " +
			"COUNT(readings.id) AS total_count, " +
			"ROUND(AVG(readings.value)::numeric, 2) AS avg_value, " +
			"ROUND(SUM(readings.value)::numeric, 2) AS sum_value, " +
			"ROUND(MIN(readings.value)::numeric, 2) AS min_value, " +
			"ROUND(MAX(readings.value)::numeric, 2) AS max_value, " +
			"MIN(readings.timestamp) AS first_reading, MAX(readings.timestamp) AS last_reading").
		Where("readings.timestamp BETWEEN ? AND ?", params.StartDate, params.EndDate).
		Group("meters.id, meters.serial, meters.location, users.id, users.name, zones.id, zones.name, zones.comuna, zones.region").
		Order("zones.name, users.name, meters.serial")

	// The display joins double as the ownership join, so the row filter is
	// applied as a bare predicate here instead of through scope.Readings.
	// Emitting the meters join twice would make postgres reject the query.
	query = query.
		Joins("JOIN meters ON meters.id = readings.meter_id").
		Joins("LEFT JOIN users ON users.id = meters.user_id").
		Joins("LEFT JOIN zones ON zones.id = users.zone_id").
		Scopes(scope.Meters(actor))

	if params.ZoneID != nil {
		query = query.Where("users.zone_id = ?", *params.ZoneID)
	}
	if params.UserID != nil {
		query = query.Where("meters.user_id = ?", *params.UserID)
	}

	var rows []ConsumptionRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, nil, nil, err
	}

	summary := summarizeConsumption(rows, params.StartDate, params.EndDate)

	report, err := s.recordReport(actor, models.ReportTypeConsumption, map[string]interface{}{
		"start_date": params.StartDate.Format("2006-01-02"),
		"end_date":   params.EndDate.Format("2006-01-02"),
		"zone_id":    params.ZoneID,
		"user_id":    params.UserID,
		"format":     params.Format,
	}, fmt.Sprintf("Consumption report from %s to %s. %d meters analyzed.",
		summary.StartDate, summary.EndDate, summary.TotalMeters))
	if err != nil {
		return nil, nil, nil, err
	}

	return report, rows, summary, nil
}

// GenerateAlertReport lists alerts over a period with per-kind rollups and
// persists the generation record.
func (s *ReportService) GenerateAlertReport(actor scope.Actor, params AlertReportParams) (*models.Report, []AlertReportRow, *AlertReportSummary, error) {
	if params.StartDate.IsZero() || params.EndDate.IsZero() {
		return nil, nil, nil, apperrors.Validation("start_date and end_date are required")
	}

	// Same single join chain as the consumption report: the display joins
	// already reach the owning meter, so the row filter rides on them.
	query := s.DB.Model(&models.Alert{}).
		Select("alerts.kind AS kind, alerts.message AS message, alerts.timestamp AS timestamp, alerts.resolved AS resolved, " +
			"readings.value AS reading_value, meters.serial AS meter_serial, " +
			"users.name AS user_name, zones.name AS zone_name").
		Joins("JOIN readings ON readings.id = alerts.reading_id").
		Joins("JOIN meters ON meters.id = readings.meter_id").
		Joins("LEFT JOIN users ON users.id = meters.user_id").
		Joins("LEFT JOIN zones ON zones.id = users.zone_id").
		Scopes(scope.Meters(actor)).
		Where("alerts.timestamp BETWEEN ? AND ?", params.StartDate, params.EndDate).
		Order("alerts.timestamp DESC")

	if params.Kind != "" {
		query = query.Where("alerts.kind = ?", params.Kind)
	}

	var rows []AlertReportRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, nil, nil, err
	}

	summary := &AlertReportSummary{
		ByKind:    make(map[string]AlertKindStats),
		StartDate: params.StartDate.Format("2006-01-02"),
		EndDate:   params.EndDate.Format("2006-01-02"),
	}
	for _, row := range rows {
		stats := summary.ByKind[row.Kind]
		stats.Kind = row.Kind
		stats.Total++
		if row.Resolved {
			stats.Resolved++
			summary.Resolved++
		} else {
			stats.Pending++
			summary.Pending++
		}
		summary.ByKind[row.Kind] = stats
		summary.Total++
	}

	report, err := s.recordReport(actor, models.ReportTypeAlerts, map[string]interface{}{
		"start_date": summary.StartDate,
		"end_date":   summary.EndDate,
		"kind":       params.Kind,
	}, fmt.Sprintf("Alert report from %s to %s. %d alerts found.",
		summary.StartDate, summary.EndDate, summary.Total))
	if err != nil {
		return nil, nil, nil, err
	}

	return report, rows, summary, nil
}

// recordReport persists the audit row of a generated report.
func (s *ReportService) recordReport(actor scope.Actor, reportType string, params map[string]interface{}, summary string) (*models.Report, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	report := models.Report{
		UserID:      actor.UserID,
		ReportType:  reportType,
		Parameters:  string(raw),
		Summary:     summary,
		GeneratedAt: time.Now(),
	}
	if err := s.DB.Create(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// summarizeConsumption computes the trailing rollup of a consumption report.
func summarizeConsumption(rows []ConsumptionRow, start, end time.Time) *ConsumptionSummary {
	summary := &ConsumptionSummary{
		TotalMeters: len(rows),
		StartDate:   start.Format("2006-01-02"),
		EndDate:     end.Format("2006-01-02"),
	}

	avgSum := 0.0
	avgCount := 0
	for _, row := range rows {
		summary.TotalReadings += row.TotalCount
		summary.TotalConsumption += row.SumValue
		if row.AvgValue != nil {
			avgSum += *row.AvgValue
			avgCount++
		}
	}
	if avgCount > 0 {
		globalAvg := roundTo2(avgSum / float64(avgCount))
		summary.GlobalAverage = &globalAvg
	}

	return summary
}

// consumptionCSVHeaders are the 11 columns of the CSV export.
var consumptionCSVHeaders = []string{
	"Meter Serial",
	"Location",
	"User",
	"Rural Zone",
	"Total Readings",
	"Average Consumption",
	"Total Consumption",
	"Min Consumption",
	"Max Consumption",
	"First Reading",
	"Last Reading",
}

// FormatConsumptionCSV renders the report as CSV: a header row, one row per
// meter, then the RESUMEN GENERAL block. Text fields are double-quoted with
// embedded quotes doubled.
func FormatConsumptionCSV(rows []ConsumptionRow, summary *ConsumptionSummary) string {
	var b strings.Builder

	b.WriteString(strings.Join(consumptionCSVHeaders, ","))
	b.WriteString("\n")

	for _, row := range rows {
		fields := []string{
			csvQuote(row.Serial),
			csvQuote(row.Location),
			csvQuote(row.UserName),
			csvQuote(row.ZoneName),
			fmt.Sprintf("%d", row.TotalCount),
			csvNumber(row.AvgValue),
			fmt.Sprintf("%.2f", row.SumValue),
			csvNumber(row.MinValue),
			csvNumber(row.MaxValue),
			csvQuote(csvTime(row.FirstReading)),
			csvQuote(csvTime(row.LastReading)),
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteString("\n")
	}

	b.WriteString("\nRESUMEN GENERAL\n")
	b.WriteString(fmt.Sprintf("Total Meters,%d\n", summary.TotalMeters))
	b.WriteString(fmt.Sprintf("Total Readings,%d\n", summary.TotalReadings))
	b.WriteString(fmt.Sprintf("Total Consumption,%.2f\n", summary.TotalConsumption))
	b.WriteString(fmt.Sprintf("Global Average,%s\n", csvNumber(summary.GlobalAverage)))

	return b.String()
}

// BuildConsumptionWorkbook renders the report as an XLSX workbook with the
// same columns and trailing summary block as the CSV export.
func BuildConsumptionWorkbook(rows []ConsumptionRow, summary *ConsumptionSummary) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Consumption"

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for col, header := range consumptionCSVHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, row := range rows {
		values := []interface{}{
			row.Serial,
			row.Location,
			row.UserName,
			row.ZoneName,
			row.TotalCount,
			derefOrEmpty(row.AvgValue),
			row.SumValue,
			derefOrEmpty(row.MinValue),
			derefOrEmpty(row.MaxValue),
			csvTime(row.FirstReading),
			csvTime(row.LastReading),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	summaryStart := len(rows) + 3
	summaryLines := [][2]interface{}{
		{"RESUMEN GENERAL", ""},
		{"Total Meters", summary.TotalMeters},
		{"Total Readings", summary.TotalReadings},
		{"Total Consumption", summary.TotalConsumption},
		{"Global Average", derefOrEmpty(summary.GlobalAverage)},
	}
	for i, line := range summaryLines {
		keyCell, err := excelize.CoordinatesToCellName(1, summaryStart+i)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, keyCell, line[0]); err != nil {
			return nil, err
		}
		valCell, err := excelize.CoordinatesToCellName(2, summaryStart+i)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, valCell, line[1]); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func csvNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func csvTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func derefOrEmpty(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/services"
	"github.com/Saurus21/agua-rural-api/services/container"
)

// InterfaceReportController defines the report endpoints.
type InterfaceReportController interface {
	GetReports()
	ConsumptionReport()
	AlertReport()
}

// ReportController handles report generation and history.
type ReportController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewReportController creates a new report controller.
func NewReportController(ctx *gin.Context, container *container.ServiceContainer) *ReportController {
	return &ReportController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleReportFunc returns a Gin handler dispatching to the report controller.
func HandleReportFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewReportController(ctx, container)

		switch method {
		case "getReports":
			controller.GetReports()
		case "consumptionReport":
			controller.ConsumptionReport()
		case "alertReport":
			controller.AlertReport()
		default:
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid method"})
		}
	}
}

func (c *ReportController) reportService() services.InterfaceReportService {
	return c.Container.GetService("report").(services.InterfaceReportService)
}

// 1. GetReports lists previously generated reports
// @Summary      List report history
// @Tags         Reports
// @Produce      json
// @Param        page query int false "Page, defaults to 1"
// @Param        limit query int false "Page size, defaults to 10"
// @Param        report_type query string false "Filter by report type"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /reports [get]
// @Security     BearerAuth
func (c *ReportController) GetReports() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	page, limit := paginationParams(c.Ctx)

	reports, total, err := c.reportService().GetReports(actor, page, limit, c.Ctx.Query("report_type"))
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, paginated("reports", reports, page, limit, total))
}

// 2. ConsumptionReport aggregates consumption per meter over a period
// @Summary      Generate a consumption report
// @Description  Per-meter aggregates plus a global summary; downloadable as CSV or XLSX
// @Tags         Reports
// @Produce      json
// @Param        start_date query string true "Period start (YYYY-MM-DD)"
// @Param        end_date query string true "Period end (YYYY-MM-DD)"
// @Param        zone_id query int false "Restrict to one zone (admin only)"
// @Param        user_id query int false "Restrict to one user's meters"
// @Param        format query string false "json (default), csv or xlsx"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /reports/consumption [post]
// @Security     BearerAuth
func (c *ReportController) ConsumptionReport() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}

	params, err := c.consumptionParams()
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	report, rows, summary, err := c.reportService().GenerateConsumptionReport(actor, params)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	switch params.Format {
	case "csv":
		filename := fmt.Sprintf("consumption_%s.csv", uuid.NewString())
		c.Ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Ctx.Data(http.StatusOK, "text/csv; charset=utf-8",
			[]byte(services.FormatConsumptionCSV(rows, summary)))
	case "xlsx":
		workbook, err := services.BuildConsumptionWorkbook(rows, summary)
		if err != nil {
			respondError(c.Ctx, containerConfig(c.Container), err)
			return
		}
		filename := fmt.Sprintf("consumption_%s.xlsx", uuid.NewString())
		c.Ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Ctx.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := workbook.Write(c.Ctx.Writer); err != nil {
			respondError(c.Ctx, containerConfig(c.Container), err)
		}
	default:
		c.Ctx.JSON(http.StatusOK, gin.H{
			"report_id": report.ID,
			"data":      rows,
			"summary":   summary,
		})
	}
}

// 3. AlertReport lists alerts over a period with per-kind rollups
// @Summary      Generate an alert report
// @Tags         Reports
// @Produce      json
// @Param        start_date query string true "Period start (YYYY-MM-DD)"
// @Param        end_date query string true "Period end (YYYY-MM-DD)"
// @Param        kind query string false "Filter by alert kind"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /reports/alerts [post]
// @Security     BearerAuth
func (c *ReportController) AlertReport() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}

	start, end, err := c.periodParams()
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	params := services.AlertReportParams{
		StartDate: start,
		EndDate:   end,
		Kind:      c.Ctx.Query("kind"),
	}
	report, rows, summary, err := c.reportService().GenerateAlertReport(actor, params)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"report_id": report.ID,
		"data":      rows,
		"summary":   summary,
	})
}

// consumptionParams parses the consumption report query string.
func (c *ReportController) consumptionParams() (services.ConsumptionReportParams, error) {
	var params services.ConsumptionReportParams

	start, end, err := c.periodParams()
	if err != nil {
		return params, err
	}
	params.StartDate = start
	params.EndDate = end

	if raw, exists := c.Ctx.GetQuery("zone_id"); exists && raw != "" {
		parsed, ok := parseUintQuery(raw)
		if !ok {
			return params, apperrors.Validation("zone_id must be numeric")
		}
		params.ZoneID = &parsed
	}
	if raw, exists := c.Ctx.GetQuery("user_id"); exists && raw != "" {
		parsed, ok := parseUintQuery(raw)
		if !ok {
			return params, apperrors.Validation("user_id must be numeric")
		}
		params.UserID = &parsed
	}

	params.Format = c.Ctx.DefaultQuery("format", "json")
	switch params.Format {
	case "json", "csv", "xlsx":
	default:
		return params, apperrors.Validation("format must be json, csv or xlsx")
	}

	return params, nil
}

// periodParams parses the mandatory start_date/end_date pair. The end date
// is extended to the last instant of its day so the period is inclusive.
func (c *ReportController) periodParams() (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", c.Ctx.Query("start_date"))
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Validation("start_date is required (YYYY-MM-DD)")
	}
	end, err := time.Parse("2006-01-02", c.Ctx.Query("end_date"))
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Validation("end_date is required (YYYY-MM-DD)")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperrors.Validation("end_date must not precede start_date")
	}

	end = end.Add(24*time.Hour - time.Nanosecond)
	return start, end, nil
}

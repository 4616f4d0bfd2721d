package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/services"
	"github.com/Saurus21/agua-rural-api/services/container"
)

// InterfaceReadingController defines the reading endpoints.
type InterfaceReadingController interface {
	GetReadings()
	GetReading()
	CreateReading()
	SyncReadings()
}

// ReadingController handles meter readings.
type ReadingController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewReadingController creates a new reading controller.
func NewReadingController(ctx *gin.Context, container *container.ServiceContainer) *ReadingController {
	return &ReadingController{
		Ctx:       ctx,
		Container: container,
	}
}

// SyncReadingsRequest is the payload of a bulk offline sync.
type SyncReadingsRequest struct {
	Readings []services.ReadingInput `json:"readings" binding:"required"`
}

// HandleReadingFunc returns a Gin handler dispatching to the reading controller.
func HandleReadingFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewReadingController(ctx, container)

		switch method {
		case "getReadings":
			controller.GetReadings()
		case "getReading":
			controller.GetReading()
		case "createReading":
			controller.CreateReading()
		case "syncReadings":
			controller.SyncReadings()
		default:
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid method"})
		}
	}
}

func (c *ReadingController) readingService() services.InterfaceReadingService {
	return c.Container.GetService("reading").(services.InterfaceReadingService)
}

// 1. GetReadings lists readings
// @Summary      List readings
// @Description  Paginated reading listing, newest first; lectors only see their own meters
// @Tags         Readings
// @Produce      json
// @Param        page query int false "Page, defaults to 1"
// @Param        limit query int false "Page size, defaults to 10"
// @Param        meter_id query int false "Filter by meter"
// @Param        synced query bool false "Filter by sync state"
// @Param        start_date query string false "Period start (YYYY-MM-DD)"
// @Param        end_date query string false "Period end (YYYY-MM-DD)"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /readings [get]
// @Security     BearerAuth
func (c *ReadingController) GetReadings() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	page, limit := paginationParams(c.Ctx)

	var filter services.ReadingFilter
	if raw, exists := c.Ctx.GetQuery("meter_id"); exists && raw != "" {
		if parsed, ok := parseUintQuery(raw); ok {
			filter.MeterID = &parsed
		}
	}
	if raw, exists := c.Ctx.GetQuery("synced"); exists {
		value := raw == "true"
		filter.Synced = &value
	}
	if raw := c.Ctx.Query("start_date"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			filter.StartDate = &parsed
		}
	}
	if raw := c.Ctx.Query("end_date"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			end := parsed.Add(24*time.Hour - time.Nanosecond)
			filter.EndDate = &end
		}
	}

	readings, total, err := c.readingService().GetReadings(actor, page, limit, filter)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, paginated("readings", readings, page, limit, total))
}

// 2. GetReading returns one reading with its meter and alerts
// @Summary      Get a reading
// @Tags         Readings
// @Produce      json
// @Param        id path int true "Reading ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /readings/{id} [get]
// @Security     BearerAuth
func (c *ReadingController) GetReading() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	reading, err := c.readingService().GetReadingByID(actor, id)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, reading)
}

// 3. CreateReading registers a reading and runs anomaly detection
// @Summary      Create a reading
// @Description  Stores the reading and raises alerts for anomalous values
// @Tags         Readings
// @Accept       json
// @Produce      json
// @Param        request body services.ReadingInput true "Reading data"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /readings [post]
// @Security     BearerAuth
func (c *ReadingController) CreateReading() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}

	var input services.ReadingInput
	if err := c.Ctx.ShouldBindJSON(&input); err != nil {
		respondError(c.Ctx, containerConfig(c.Container), apperrors.Validation("meter_id and value are required"))
		return
	}

	reading, err := c.readingService().CreateReading(actor, input)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusCreated, reading)
}

// 4. SyncReadings ingests a batch of offline readings
// @Summary      Sync offline readings
// @Description  Processes each reading independently; partial failures do not abort the batch
// @Tags         Readings
// @Accept       json
// @Produce      json
// @Param        request body SyncReadingsRequest true "Batch of readings"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /readings/sync [post]
// @Security     BearerAuth
func (c *ReadingController) SyncReadings() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}

	var req SyncReadingsRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		respondError(c.Ctx, containerConfig(c.Container), apperrors.Validation("readings array is required"))
		return
	}
	if len(req.Readings) == 0 {
		respondError(c.Ctx, containerConfig(c.Container), apperrors.Validation("readings array must not be empty"))
		return
	}

	result := c.readingService().SyncReadings(actor, req.Readings)
	c.Ctx.JSON(http.StatusOK, result)
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/models"
	"github.com/Saurus21/agua-rural-api/services"
	"github.com/Saurus21/agua-rural-api/services/container"
)

// InterfaceMeterController defines the meter endpoints.
type InterfaceMeterController interface {
	GetMeters()
	GetMeter()
	CreateMeter()
	UpdateMeter()
	DeactivateMeter()
	GetMeterReadings()
}

// MeterController handles meter management.
type MeterController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewMeterController creates a new meter controller.
func NewMeterController(ctx *gin.Context, container *container.ServiceContainer) *MeterController {
	return &MeterController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateMeterRequest is the payload for registering a meter.
type CreateMeterRequest struct {
	Serial   string `json:"serial" binding:"required" example:"MED-0042"`
	Location string `json:"location" example:"Camino El Molino km 3"`
	UserID   *uint  `json:"user_id"`
}

// UpdateMeterRequest is the payload for modifying a meter.
type UpdateMeterRequest struct {
	Serial   string `json:"serial"`
	Location string `json:"location"`
	UserID   *uint  `json:"user_id"`
	Active   *bool  `json:"active"`
}

// HandleMeterFunc returns a Gin handler dispatching to the meter controller.
func HandleMeterFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewMeterController(ctx, container)

		switch method {
		case "getMeters":
			controller.GetMeters()
		case "getMeter":
			controller.GetMeter()
		case "createMeter":
			controller.CreateMeter()
		case "updateMeter":
			controller.UpdateMeter()
		case "deactivateMeter":
			controller.DeactivateMeter()
		case "getMeterReadings":
			controller.GetMeterReadings()
		default:
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid method"})
		}
	}
}

func (c *MeterController) meterService() services.InterfaceMeterService {
	return c.Container.GetService("meter").(services.InterfaceMeterService)
}

// 1. GetMeters lists meters
// @Summary      List meters
// @Description  Paginated meter listing; lectors only see their own meters
// @Tags         Meters
// @Produce      json
// @Param        page query int false "Page, defaults to 1"
// @Param        limit query int false "Page size, defaults to 10"
// @Param        user_id query int false "Filter by assigned user"
// @Param        active query bool false "Filter by active state"
// @Param        serial query string false "Case-insensitive serial search"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /meters [get]
// @Security     BearerAuth
func (c *MeterController) GetMeters() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	page, limit := paginationParams(c.Ctx)

	var filter services.MeterFilter
	if raw, exists := c.Ctx.GetQuery("user_id"); exists && raw != "" {
		if parsed, ok := parseUintQuery(raw); ok {
			filter.UserID = &parsed
		}
	}
	if raw, exists := c.Ctx.GetQuery("active"); exists {
		value := raw == "true"
		filter.Active = &value
	}
	filter.Serial = c.Ctx.Query("serial")

	meters, total, err := c.meterService().GetMeters(actor, page, limit, filter)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, paginated("meters", meters, page, limit, total))
}

// 2. GetMeter returns one meter with its recent readings
// @Summary      Get a meter
// @Tags         Meters
// @Produce      json
// @Param        id path int true "Meter ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /meters/{id} [get]
// @Security     BearerAuth
func (c *MeterController) GetMeter() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	meter, recent, err := c.meterService().GetMeterByID(actor, id)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"meter":           meter,
		"recent_readings": recent,
	})
}

// 3. CreateMeter registers a meter
// @Summary      Create a meter
// @Description  Admins may assign any user; lectors only register meters for themselves
// @Tags         Meters
// @Accept       json
// @Produce      json
// @Param        request body CreateMeterRequest true "Meter data"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /meters [post]
// @Security     BearerAuth
func (c *MeterController) CreateMeter() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}

	var req CreateMeterRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		respondError(c.Ctx, containerConfig(c.Container), apperrors.Validation("serial is required"))
		return
	}

	meter := models.Meter{
		Serial:   req.Serial,
		Location: req.Location,
		UserID:   req.UserID,
		Active:   true,
	}
	if err := c.meterService().CreateMeter(actor, &meter); err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusCreated, meter)
}

// 4. UpdateMeter modifies a meter
// @Summary      Update a meter
// @Tags         Meters
// @Accept       json
// @Produce      json
// @Param        id path int true "Meter ID"
// @Param        request body UpdateMeterRequest true "Fields to update"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /meters/{id} [put]
// @Security     BearerAuth
func (c *MeterController) UpdateMeter() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req UpdateMeterRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		respondError(c.Ctx, containerConfig(c.Container), apperrors.Validation("invalid request body"))
		return
	}

	updates := map[string]interface{}{}
	if req.Serial != "" {
		updates["serial"] = req.Serial
	}
	if req.Location != "" {
		updates["location"] = req.Location
	}
	if req.UserID != nil {
		updates["user_id"] = *req.UserID
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	meter, err := c.meterService().UpdateMeter(actor, id, updates)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, meter)
}

// 5. DeactivateMeter soft-deletes a meter (admin or owner)
// @Summary      Deactivate a meter
// @Description  Marks the meter inactive; its reading history is kept
// @Tags         Meters
// @Produce      json
// @Param        id path int true "Meter ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /meters/{id} [delete]
// @Security     BearerAuth
func (c *MeterController) DeactivateMeter() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	if err := c.meterService().DeactivateMeter(actor, id); err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{"message": "meter deactivated"})
}

// 6. GetMeterReadings lists one meter's readings
// @Summary      List a meter's readings
// @Tags         Meters
// @Produce      json
// @Param        id path int true "Meter ID"
// @Param        page query int false "Page, defaults to 1"
// @Param        limit query int false "Page size, defaults to 10"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /meters/{id}/readings [get]
// @Security     BearerAuth
func (c *MeterController) GetMeterReadings() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}
	page, limit := paginationParams(c.Ctx)

	readings, total, err := c.meterService().GetMeterReadings(actor, id, page, limit)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, paginated("readings", readings, page, limit, total))
}

package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/services"
	"github.com/Saurus21/agua-rural-api/services/container"
)

// InterfaceAlertController defines the alert endpoints.
type InterfaceAlertController interface {
	GetAlerts()
	GetAlert()
	GetPendingAlerts()
	ResolveAlert()
	CreateAlert()
	GetStatistics()
}

// AlertController handles consumption alerts.
type AlertController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAlertController creates a new alert controller.
func NewAlertController(ctx *gin.Context, container *container.ServiceContainer) *AlertController {
	return &AlertController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateAlertRequest is the payload for raising a manual alert.
type CreateAlertRequest struct {
	ReadingID uint   `json:"reading_id" binding:"required"`
	Kind      string `json:"kind" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// HandleAlertFunc returns a Gin handler dispatching to the alert controller.
func HandleAlertFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAlertController(ctx, container)

		switch method {
		case "getAlerts":
			controller.GetAlerts()
		case "getAlert":
			controller.GetAlert()
		case "getPendingAlerts":
			controller.GetPendingAlerts()
		case "resolveAlert":
			controller.ResolveAlert()
		case "createAlert":
			controller.CreateAlert()
		case "getStatistics":
			controller.GetStatistics()
		default:
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid method"})
		}
	}
}

func (c *AlertController) alertService() services.InterfaceAlertService {
	return c.Container.GetService("alert").(services.InterfaceAlertService)
}

// 1. GetAlerts lists alerts
// @Summary      List alerts
// @Description  Paginated alert listing, newest first; lectors only see alerts on their own meters
// @Tags         Alerts
// @Produce      json
// @Param        page query int false "Page, defaults to 1"
// @Param        limit query int false "Page size, defaults to 10"
// @Param        kind query string false "Filter by alert kind"
// @Param        resolved query bool false "Filter by resolution state"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /alerts [get]
// @Security     BearerAuth
func (c *AlertController) GetAlerts() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	page, limit := paginationParams(c.Ctx)

	var filter services.AlertFilter
	filter.Kind = c.Ctx.Query("kind")
	if raw, exists := c.Ctx.GetQuery("resolved"); exists {
		value := raw == "true"
		filter.Resolved = &value
	}

	alerts, total, err := c.alertService().GetAlerts(actor, page, limit, filter)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, paginated("alerts", alerts, page, limit, total))
}

// 2. GetAlert returns one alert
// @Summary      Get an alert
// @Tags         Alerts
// @Produce      json
// @Param        id path int true "Alert ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /alerts/{id} [get]
// @Security     BearerAuth
func (c *AlertController) GetAlert() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	alert, err := c.alertService().GetAlertByID(actor, id)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, alert)
}

// 3. GetPendingAlerts lists unresolved alerts, oldest first
// @Summary      List pending alerts
// @Tags         Alerts
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /alerts/pending [get]
// @Security     BearerAuth
func (c *AlertController) GetPendingAlerts() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}

	alerts, err := c.alertService().GetPendingAlerts(actor)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// 4. ResolveAlert marks an alert as resolved
// @Summary      Resolve an alert
// @Description  Resolution is one-way; resolving an already resolved alert is a no-op
// @Tags         Alerts
// @Produce      json
// @Param        id path int true "Alert ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /alerts/{id}/resolve [put]
// @Security     BearerAuth
func (c *AlertController) ResolveAlert() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	alert, err := c.alertService().ResolveAlert(actor, id)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, alert)
}

// 5. CreateAlert raises a manual alert (admin only)
// @Summary      Create a manual alert
// @Tags         Alerts
// @Accept       json
// @Produce      json
// @Param        request body CreateAlertRequest true "Alert data"
// @Success      201  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /alerts [post]
// @Security     BearerAuth
func (c *AlertController) CreateAlert() {
	var req CreateAlertRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		respondError(c.Ctx, containerConfig(c.Container), apperrors.Validation("reading_id, kind and message are required"))
		return
	}

	alert, err := c.alertService().CreateAlert(req.ReadingID, req.Kind, req.Message)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusCreated, alert)
}

// 6. GetStatistics aggregates alerts by kind over a day window
// @Summary      Alert statistics
// @Tags         Alerts
// @Produce      json
// @Param        days query int false "Window in days, defaults to 30"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /alerts/statistics [get]
// @Security     BearerAuth
func (c *AlertController) GetStatistics() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	days, _ := strconv.Atoi(c.Ctx.DefaultQuery("days", "30"))

	stats, err := c.alertService().GetStatistics(actor, days)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, stats)
}

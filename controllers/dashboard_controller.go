package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Saurus21/agua-rural-api/services"
	"github.com/Saurus21/agua-rural-api/services/container"
)

// InterfaceDashboardController defines the dashboard endpoints.
type InterfaceDashboardController interface {
	GetStatistics()
	GetSummary()
	GetConsumptionByZone()
}

// DashboardController serves the aggregate dashboard views.
type DashboardController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewDashboardController creates a new dashboard controller.
func NewDashboardController(ctx *gin.Context, container *container.ServiceContainer) *DashboardController {
	return &DashboardController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleDashboardFunc returns a Gin handler dispatching to the dashboard controller.
func HandleDashboardFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewDashboardController(ctx, container)

		switch method {
		case "getStatistics":
			controller.GetStatistics()
		case "getSummary":
			controller.GetSummary()
		case "getConsumptionByZone":
			controller.GetConsumptionByZone()
		default:
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid method"})
		}
	}
}

func (c *DashboardController) dashboardService() services.InterfaceDashboardService {
	return c.Container.GetService("dashboard").(services.InterfaceDashboardService)
}

// 1. GetStatistics returns the full dashboard payload
// @Summary      Dashboard statistics
// @Description  Totals, recent activity, daily consumption series and alert breakdown
// @Tags         Dashboard
// @Produce      json
// @Param        days query int false "Window in days, defaults to 30"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /dashboard/statistics [get]
// @Security     BearerAuth
func (c *DashboardController) GetStatistics() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	days, _ := strconv.Atoi(c.Ctx.DefaultQuery("days", "30"))

	stats, err := c.dashboardService().GetStatistics(actor, days)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, stats)
}

// 2. GetSummary returns today's counters
// @Summary      Dashboard summary
// @Description  Lightweight today-at-a-glance counters, cached for one minute
// @Tags         Dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /dashboard/summary [get]
// @Security     BearerAuth
func (c *DashboardController) GetSummary() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}

	summary, err := c.dashboardService().GetSummary(actor)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, summary)
}

// 3. GetConsumptionByZone returns the per-zone rollup (admin only)
// @Summary      Consumption by zone
// @Tags         Dashboard
// @Produce      json
// @Param        days query int false "Window in days, defaults to 30"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Router       /dashboard/consumption-by-zone [get]
// @Security     BearerAuth
func (c *DashboardController) GetConsumptionByZone() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	days, _ := strconv.Atoi(c.Ctx.DefaultQuery("days", "30"))

	zones, err := c.dashboardService().GetConsumptionByZone(actor, days)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{"zones": zones})
}

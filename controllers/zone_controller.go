package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/services"
	"github.com/Saurus21/agua-rural-api/services/container"
)

// InterfaceZoneController defines the zone endpoints.
type InterfaceZoneController interface {
	GetZones()
	GetZone()
	CreateZone()
	UpdateZone()
}

// ZoneController handles rural zone management. All routes behind it are
// admin-only.
type ZoneController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewZoneController creates a new zone controller.
func NewZoneController(ctx *gin.Context, container *container.ServiceContainer) *ZoneController {
	return &ZoneController{
		Ctx:       ctx,
		Container: container,
	}
}

// ZoneRequest is the payload for creating or updating a zone.
type ZoneRequest struct {
	Name   string `json:"name" example:"Los Aromos"`
	Comuna string `json:"comuna" example:"San Fernando"`
	Region string `json:"region" example:"O'Higgins"`
}

// HandleZoneFunc returns a Gin handler dispatching to the zone controller.
func HandleZoneFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewZoneController(ctx, container)

		switch method {
		case "getZones":
			controller.GetZones()
		case "getZone":
			controller.GetZone()
		case "createZone":
			controller.CreateZone()
		case "updateZone":
			controller.UpdateZone()
		default:
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid method"})
		}
	}
}

func (c *ZoneController) zoneService() services.InterfaceZoneService {
	return c.Container.GetService("zone").(services.InterfaceZoneService)
}

// 1. GetZones lists zones with membership counts
// @Summary      List zones
// @Tags         Zones
// @Produce      json
// @Param        page query int false "Page, defaults to 1"
// @Param        limit query int false "Page size, defaults to 10"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /zones [get]
// @Security     BearerAuth
func (c *ZoneController) GetZones() {
	page, limit := paginationParams(c.Ctx)

	zones, total, err := c.zoneService().GetZones(page, limit)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, paginated("zones", zones, page, limit, total))
}

// 2. GetZone returns one zone with its active users
// @Summary      Get a zone
// @Tags         Zones
// @Produce      json
// @Param        id path int true "Zone ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /zones/{id} [get]
// @Security     BearerAuth
func (c *ZoneController) GetZone() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	zone, err := c.zoneService().GetZoneByID(id)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, zone)
}

// 3. CreateZone registers a zone
// @Summary      Create a zone
// @Tags         Zones
// @Accept       json
// @Produce      json
// @Param        request body ZoneRequest true "Zone data"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /zones [post]
// @Security     BearerAuth
func (c *ZoneController) CreateZone() {
	var req ZoneRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		respondError(c.Ctx, containerConfig(c.Container), apperrors.Validation("invalid request body"))
		return
	}

	zone, err := c.zoneService().CreateZone(services.ZoneInput(req))
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusCreated, zone)
}

// 4. UpdateZone modifies a zone
// @Summary      Update a zone
// @Tags         Zones
// @Accept       json
// @Produce      json
// @Param        id path int true "Zone ID"
// @Param        request body ZoneRequest true "Fields to update"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /zones/{id} [put]
// @Security     BearerAuth
func (c *ZoneController) UpdateZone() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req ZoneRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		respondError(c.Ctx, containerConfig(c.Container), apperrors.Validation("invalid request body"))
		return
	}

	zone, err := c.zoneService().UpdateZone(id, services.ZoneInput(req))
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, zone)
}

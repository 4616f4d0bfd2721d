package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/models"
	"github.com/Saurus21/agua-rural-api/services"
	"github.com/Saurus21/agua-rural-api/services/container"
)

// InterfaceUserController defines the user management endpoints.
type InterfaceUserController interface {
	GetUsers()
	GetUser()
	CreateUser()
	UpdateUser()
	DeactivateUser()
	GetUserMeters()
}

// UserController handles user management.
type UserController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewUserController creates a new user controller.
func NewUserController(ctx *gin.Context, container *container.ServiceContainer) *UserController {
	return &UserController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateUserRequest is the payload for registering a user.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required" example:"María Soto"`
	Email    string `json:"email" binding:"required,email" example:"maria@aguarural.cl"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" example:"+56912345678"`
	Role     string `json:"role" binding:"omitempty,oneof=admin lector" example:"lector"`
	ZoneID   *uint  `json:"zone_id"`
}

// UpdateUserRequest is the payload for modifying a user. Zone, role and
// active state only take effect for admin callers.
type UpdateUserRequest struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Role   string `json:"role" binding:"omitempty,oneof=admin lector"`
	ZoneID *uint  `json:"zone_id"`
	Active *bool  `json:"active"`
}

// HandleUserFunc returns a Gin handler dispatching to the user controller.
func HandleUserFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewUserController(ctx, container)

		switch method {
		case "getUsers":
			controller.GetUsers()
		case "getUser":
			controller.GetUser()
		case "createUser":
			controller.CreateUser()
		case "updateUser":
			controller.UpdateUser()
		case "deactivateUser":
			controller.DeactivateUser()
		case "getUserMeters":
			controller.GetUserMeters()
		default:
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid method"})
		}
	}
}

func (c *UserController) userService() services.InterfaceUserService {
	return c.Container.GetService("user").(services.InterfaceUserService)
}

// 1. GetUsers lists users
// @Summary      List users
// @Description  Paginated user listing; lectors only see themselves
// @Tags         Users
// @Produce      json
// @Param        page query int false "Page, defaults to 1"
// @Param        limit query int false "Page size, defaults to 10"
// @Param        zone_id query int false "Filter by zone"
// @Param        active query bool false "Filter by active state"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /users [get]
// @Security     BearerAuth
func (c *UserController) GetUsers() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	page, limit := paginationParams(c.Ctx)

	var zoneID *uint
	if raw, exists := c.Ctx.GetQuery("zone_id"); exists && raw != "" {
		if parsed, ok := parseUintQuery(raw); ok {
			zoneID = &parsed
		}
	}
	var active *bool
	if raw, exists := c.Ctx.GetQuery("active"); exists {
		value := raw == "true"
		active = &value
	}

	users, total, err := c.userService().GetUsers(actor, page, limit, zoneID, active)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	publics := make([]map[string]interface{}, 0, len(users))
	for i := range users {
		publics = append(publics, users[i].PublicInfo())
	}

	c.Ctx.JSON(http.StatusOK, paginated("users", publics, page, limit, total))
}

// 2. GetUser returns one user
// @Summary      Get a user
// @Tags         Users
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
// @Security     BearerAuth
func (c *UserController) GetUser() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	user, err := c.userService().GetUserByID(actor, id)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, user.PublicInfo())
}

// 3. CreateUser registers a user (admin only)
// @Summary      Create a user
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "User data"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /users [post]
// @Security     BearerAuth
func (c *UserController) CreateUser() {
	var req CreateUserRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		respondError(c.Ctx, containerConfig(c.Container), apperrors.Validation("name, email and password (min 6 chars) are required"))
		return
	}

	user := models.User{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Role:   req.Role,
		ZoneID: req.ZoneID,
		Active: true,
	}
	if err := c.userService().CreateUser(&user, req.Password); err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusCreated, user.PublicInfo())
}

// 4. UpdateUser modifies a user
// @Summary      Update a user
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        id path int true "User ID"
// @Param        request body UpdateUserRequest true "Fields to update"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [put]
// @Security     BearerAuth
func (c *UserController) UpdateUser() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		respondError(c.Ctx, containerConfig(c.Container), apperrors.Validation("invalid request body"))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Role != "" {
		updates["role"] = req.Role
	}
	if req.ZoneID != nil {
		updates["zone_id"] = *req.ZoneID
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	user, err := c.userService().UpdateUser(actor, id, updates)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, user.PublicInfo())
}

// 5. DeactivateUser soft-deletes a user (admin only)
// @Summary      Deactivate a user
// @Description  Marks the user inactive; readings and history are kept
// @Tags         Users
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [delete]
// @Security     BearerAuth
func (c *UserController) DeactivateUser() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	if err := c.userService().DeactivateUser(actor, id); err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{"message": "user deactivated"})
}

// 6. GetUserMeters lists the meters assigned to a user
// @Summary      List a user's meters
// @Tags         Users
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/meters [get]
// @Security     BearerAuth
func (c *UserController) GetUserMeters() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	meters, err := c.userService().GetUserMeters(actor, id)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{"meters": meters})
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/services"
	"github.com/Saurus21/agua-rural-api/services/container"
)

// InterfaceAuthController defines the authentication endpoints.
type InterfaceAuthController interface {
	Login()
	ChangePassword()
	Me()
}

// AuthController handles login and credential management.
type AuthController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAuthController creates a new auth controller.
func NewAuthController(ctx *gin.Context, container *container.ServiceContainer) *AuthController {
	return &AuthController{
		Ctx:       ctx,
		Container: container,
	}
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"operador@aguarural.cl"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// ChangePasswordRequest is the password change payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// HandleAuthFunc returns a Gin handler dispatching to the auth controller.
func HandleAuthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAuthController(ctx, container)

		switch method {
		case "login":
			controller.Login()
		case "changePassword":
			controller.ChangePassword()
		case "verify":
			controller.Verify()
		default:
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid method"})
		}
	}
}

// 1. Login authenticates a user and issues a bearer token
// @Summary      Authenticate a user
// @Description  Validates credentials and returns a 24h JWT plus the user profile
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/login [post]
func (c *AuthController) Login() {
	var req LoginRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "email and password are required"})
		return
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.Authenticate(req.Email, req.Password)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	jwtService := c.Container.GetService("jwt").(services.InterfaceJWTService)
	token, err := jwtService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user.PublicInfo(),
	})
}

// 2. ChangePassword updates the caller's own password
// @Summary      Change password
// @Description  Verifies the current password and replaces it
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body ChangePasswordRequest true "Passwords"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/change-password [post]
// @Security     BearerAuth
func (c *AuthController) ChangePassword() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		respondError(c.Ctx, containerConfig(c.Container), apperrors.Validation("current_password and new_password (min 6 chars) are required"))
		return
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	if err := userService.ChangePassword(actor.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// 3. Verify echoes the authenticated user's profile back to the client
// @Summary      Verify the bearer token and return the current user
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/verify [get]
// @Security     BearerAuth
func (c *AuthController) Verify() {
	actor, ok := actorFromContext(c.Ctx)
	if !ok {
		return
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.GetUserByID(actor, actor.UserID)
	if err != nil {
		respondError(c.Ctx, containerConfig(c.Container), err)
		return
	}

	c.Ctx.JSON(http.StatusOK, user.PublicInfo())
}

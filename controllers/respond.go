package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/config"
	"github.com/Saurus21/agua-rural-api/models"
	"github.com/Saurus21/agua-rural-api/scope"
	"github.com/Saurus21/agua-rural-api/services/container"
)

// ErrorResponse is the error payload returned by every endpoint.
type ErrorResponse struct {
	Error   string `json:"error" example:"resource not found"`
	Details string `json:"details,omitempty"`
}

// respondError maps a service error to its HTTP status and writes the
// error payload. Unclassified errors become 500s with the raw cause
// exposed only in development.
func respondError(ctx *gin.Context, cfg *config.Config, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		// Duplicate unique fields answer 400, same as other input errors.
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", ctx.Request.URL.Path),
			zap.String("request_id", ctx.GetString("requestID")),
			zap.Error(err))

		payload := ErrorResponse{Error: "internal server error"}
		if cfg != nil && cfg.IsDevelopment() {
			payload.Details = err.Error()
		}
		ctx.JSON(status, payload)
		return
	}

	ctx.JSON(status, ErrorResponse{Error: apperrors.Message(err)})
}

// paginationParams reads page and limit from the query string with the
// usual defaults and bounds.
func paginationParams(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

// uintParam parses a numeric path parameter.
func uintParam(ctx *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name + " parameter"})
		return 0, false
	}
	return uint(value), true
}

// parseUintQuery parses a numeric query value, rejecting garbage silently.
func parseUintQuery(raw string) (uint, bool) {
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(value), true
}

// actorFromContext reads the authenticated actor placed by the auth
// middleware. Missing identity means the route was wired without it.
func actorFromContext(ctx *gin.Context) (scope.Actor, bool) {
	value, exists := ctx.Get("actor")
	if !exists {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return scope.Actor{}, false
	}
	actor, ok := value.(scope.Actor)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return scope.Actor{}, false
	}
	return actor, true
}

// paginated wraps a page of items with its pagination block.
func paginated(key string, items interface{}, page, limit int, total int64) gin.H {
	return gin.H{
		key:          items,
		"pagination": models.NewPagination(page, limit, total),
	}
}

func containerConfig(c *container.ServiceContainer) *config.Config {
	cfg, _ := c.GetService("config").(*config.Config)
	return cfg
}

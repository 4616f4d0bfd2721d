package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Saurus21/agua-rural-api/services"
	"github.com/Saurus21/agua-rural-api/services/container"
)

// HealthController answers liveness and readiness probes.
type HealthController struct {
	Container *container.ServiceContainer
}

// NewHealthController creates a health controller.
func NewHealthController(container *container.ServiceContainer) *HealthController {
	return &HealthController{Container: container}
}

// Ping is the liveness probe.
func (h *HealthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
		"status":  "healthy",
	})
}

// Ready is the readiness probe: it checks the database and, when
// configured, redis. A failing dependency reports 503.
func (h *HealthController) Ready(c *gin.Context) {
	checks := gin.H{}
	healthy := true

	sqlDB, err := h.Container.GetDB().DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		checks["database"] = "down"
		healthy = false
	} else {
		checks["database"] = "up"
	}

	if redisService, ok := h.Container.GetService("redis").(services.InterfaceRedisService); ok && redisService != nil {
		if err := redisService.Ping(); err != nil {
			checks["redis"] = "down"
		} else {
			checks["redis"] = "up"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":    checks,
		"timestamp": time.Now().UTC(),
	})
}

// ReadyDB checks only the database connection.
func (h *HealthController) ReadyDB(c *gin.Context) {
	sqlDB, err := h.Container.GetDB().DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"database":  "down",
			"timestamp": time.Now().UTC(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"database":  "up",
		"timestamp": time.Now().UTC(),
	})
}

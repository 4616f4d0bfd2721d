package container

import (
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Saurus21/agua-rural-api/config"
	"github.com/Saurus21/agua-rural-api/services"
)

// ServiceContainer wires every service with its dependencies and hands
// them out by name to the controller layer.
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config

	jwtService   services.InterfaceJWTService
	redisService services.InterfaceRedisService

	userService      services.InterfaceUserService
	meterService     services.InterfaceMeterService
	readingService   services.InterfaceReadingService
	alertService     services.InterfaceAlertService
	reportService    services.InterfaceReportService
	dashboardService services.InterfaceDashboardService
	zoneService      services.InterfaceZoneService

	mu sync.RWMutex
}

// NewServiceContainer creates the container and initializes every service.
func NewServiceContainer(db *gorm.DB, cfg *config.Config) *ServiceContainer {
	if db == nil {
		panic("database connection is nil")
	}
	if cfg == nil {
		panic("configuration is nil")
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
	}
	container.initializeServices()
	return container
}

// initializeServices constructs every service in dependency order.
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.jwtService = services.NewJWTService(c.config)

	redisService := services.NewRedisService(c.config)
	if err := redisService.Ping(); err != nil {
		zap.L().Warn("redis unreachable, summary caching disabled", zap.Error(err))
		c.redisService = nil
	} else {
		c.redisService = redisService
	}

	c.userService = services.NewUserService(c.db, c.config)
	c.meterService = services.NewMeterService(c.db, c.config)
	c.readingService = services.NewReadingService(c.db, c.config)
	c.alertService = services.NewAlertService(c.db, c.config)
	c.reportService = services.NewReportService(c.db, c.config)
	c.dashboardService = services.NewDashboardService(c.db, c.config, c.redisService)
	c.zoneService = services.NewZoneService(c.db, c.config)
}

// GetService returns the service registered under the given name.
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "user":
		return c.userService
	case "meter":
		return c.meterService
	case "reading":
		return c.readingService
	case "alert":
		return c.alertService
	case "report":
		return c.reportService
	case "dashboard":
		return c.dashboardService
	case "zone":
		return c.zoneService
	default:
		return nil
	}
}

// GetDB returns the database connection.
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

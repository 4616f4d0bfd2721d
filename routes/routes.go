package routes

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gin-gonic/gin"

	"github.com/Saurus21/agua-rural-api/config"
	"github.com/Saurus21/agua-rural-api/controllers"
	"github.com/Saurus21/agua-rural-api/middleware"
	"github.com/Saurus21/agua-rural-api/services/container"
)

// SetupRouter builds the configured HTTP router.
func SetupRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(zap.L()))

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	serviceContainer := container.NewServiceContainer(db, cfg)
	middleware.InitAuthMiddleware(cfg)

	registerRoutes(r, serviceContainer)
	return r
}

// registerRoutes wires every API route.
func registerRoutes(r *gin.Engine, container *container.ServiceContainer) {
	api := r.Group("/api")
	registerPublicRoutes(api, container)
	registerAuthenticatedRoutes(api, container)
}

// registerPublicRoutes wires the routes reachable without a token.
func registerPublicRoutes(api *gin.RouterGroup, container *container.ServiceContainer) {
	health := controllers.NewHealthController(container)
	api.GET("/ping", health.Ping)
	api.GET("/health", health.Ready)
	api.GET("/health/db", health.ReadyDB)

	// Login is throttled per client IP to slow down credential guessing.
	api.POST("/auth/login",
		middleware.IPRateLimiter(1, 5),
		controllers.HandleAuthFunc(container, "login"))
}

// registerAuthenticatedRoutes wires the routes behind the auth middleware.
func registerAuthenticatedRoutes(api *gin.RouterGroup, container *container.ServiceContainer) {
	auth := api.Group("/")
	auth.Use(middleware.Authentication())

	// Authenticated account routes
	auth.GET("/auth/verify", controllers.HandleAuthFunc(container, "verify"))
	auth.POST("/auth/change-password", controllers.HandleAuthFunc(container, "changePassword"))

	// User routes; creation and deactivation are admin-only
	auth.Group("/users").GET("", controllers.HandleUserFunc(container, "getUsers"))
	auth.Group("/users").GET("/:id", controllers.HandleUserFunc(container, "getUser"))
	auth.Group("/users").GET("/:id/meters", controllers.HandleUserFunc(container, "getUserMeters"))
	auth.Group("/users").POST("", middleware.RequireAdmin(), controllers.HandleUserFunc(container, "createUser"))
	auth.Group("/users").PUT("/:id", controllers.HandleUserFunc(container, "updateUser"))
	auth.Group("/users").DELETE("/:id", middleware.RequireAdmin(), controllers.HandleUserFunc(container, "deactivateUser"))

	// Meter routes
	auth.Group("/meters").GET("", controllers.HandleMeterFunc(container, "getMeters"))
	auth.Group("/meters").GET("/:id", controllers.HandleMeterFunc(container, "getMeter"))
	auth.Group("/meters").GET("/:id/readings", controllers.HandleMeterFunc(container, "getMeterReadings"))
	auth.Group("/meters").POST("", controllers.HandleMeterFunc(container, "createMeter"))
	auth.Group("/meters").PUT("/:id", controllers.HandleMeterFunc(container, "updateMeter"))
	auth.Group("/meters").DELETE("/:id", controllers.HandleMeterFunc(container, "deactivateMeter"))

	// Reading routes
	auth.Group("/readings").GET("", controllers.HandleReadingFunc(container, "getReadings"))
	auth.Group("/readings").GET("/:id", controllers.HandleReadingFunc(container, "getReading"))
	auth.Group("/readings").POST("", controllers.HandleReadingFunc(container, "createReading"))
	auth.Group("/readings").POST("/sync", controllers.HandleReadingFunc(container, "syncReadings"))

	// Alert routes; manual alerts are admin-only
	auth.Group("/alerts").GET("", controllers.HandleAlertFunc(container, "getAlerts"))
	auth.Group("/alerts").GET("/pending", controllers.HandleAlertFunc(container, "getPendingAlerts"))
	auth.Group("/alerts").GET("/statistics", controllers.HandleAlertFunc(container, "getStatistics"))
	auth.Group("/alerts").GET("/:id", controllers.HandleAlertFunc(container, "getAlert"))
	auth.Group("/alerts").PUT("/:id/resolve", controllers.HandleAlertFunc(container, "resolveAlert"))
	auth.Group("/alerts").POST("", middleware.RequireAdmin(), controllers.HandleAlertFunc(container, "createAlert"))

	// Report routes
	auth.Group("/reports").GET("", controllers.HandleReportFunc(container, "getReports"))
	auth.Group("/reports").POST("/consumption", controllers.HandleReportFunc(container, "consumptionReport"))
	auth.Group("/reports").POST("/alerts", controllers.HandleReportFunc(container, "alertReport"))

	// Dashboard routes
	auth.Group("/dashboard").GET("/statistics", controllers.HandleDashboardFunc(container, "getStatistics"))
	auth.Group("/dashboard").GET("/summary", controllers.HandleDashboardFunc(container, "getSummary"))
	auth.Group("/dashboard").GET("/consumption-by-zone", controllers.HandleDashboardFunc(container, "getConsumptionByZone"))

	// Zone routes, admin-only
	zones := auth.Group("/zones")
	zones.Use(middleware.RequireAdmin())
	zones.GET("", controllers.HandleZoneFunc(container, "getZones"))
	zones.GET("/:id", controllers.HandleZoneFunc(container, "getZone"))
	zones.POST("", controllers.HandleZoneFunc(container, "createZone"))
	zones.PUT("/:id", controllers.HandleZoneFunc(container, "updateZone"))
}

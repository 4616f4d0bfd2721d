// @title           Agua Rural API
// @version         1.0
// @description     Backend for rural drinking water committees: meter readings, consumption alerts and reporting
// @host      localhost:3000
// @BasePath  /api

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Enter the token with the `Bearer: ` prefix
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Saurus21/agua-rural-api/config"
	"github.com/Saurus21/agua-rural-api/database"
	"github.com/Saurus21/agua-rural-api/models"
	"github.com/Saurus21/agua-rural-api/routes"
	"github.com/Saurus21/agua-rural-api/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, using environment variables")
	}

	cfg := config.GetConfig()

	logger, err := config.SetupLogger(cfg.EnvType)
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()
	db := pool.GetDB()

	if err := autoMigrate(db); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	if err := ensureAdminExists(db, cfg); err != nil {
		logger.Fatal("failed to seed admin account", zap.Error(err))
	}

	r := routes.SetupRouter(db, cfg)

	addr := ":" + cfg.ServerPort
	logger.Info("server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// autoMigrate creates missing tables and columns. Parents migrate before
// children so foreign keys resolve.
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Zone{},
		&models.User{},
		&models.Meter{},
		&models.Reading{},
		&models.Alert{},
		&models.Report{},
	)
}

// ensureAdminExists seeds the default administrator account when no admin
// is present, so a fresh deployment is never locked out.
func ensureAdminExists(db *gorm.DB, cfg *config.Config) error {
	var count int64
	if err := db.Model(&models.User{}).
		Where("role = ? AND active = ?", models.RoleAdmin, true).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword(cfg.DefaultAdminPassword)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:         "Administrador",
		Email:        cfg.DefaultAdminEmail,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	zap.L().Info("default admin account created", zap.String("email", admin.Email))
	return nil
}

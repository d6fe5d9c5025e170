package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"workforce-service/internal/audit"
	"workforce-service/internal/cache"
	"workforce-service/internal/config"
	"workforce-service/internal/handlers"
	"workforce-service/internal/jobs"
	"workforce-service/internal/middleware"
	"workforce-service/internal/models"
	"workforce-service/internal/repository"
	"workforce-service/internal/seeders"
	"workforce-service/internal/services"
)

// @title Workforce API
// @version 1.0.0
// @description Staff leave workflow and clinical privilege service

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8094
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}

	// Run database migrations
	logger.Info("Running database migrations...")
	if err := db.AutoMigrate(
		&models.Staff{},
		&models.StaffAssignment{},
		&models.Department{},
		&models.User{},
		&models.UserRoleBinding{},
		&models.LeaveType{},
		&models.LeaveRequest{},
		&models.LeaveHistoryEntry{},
		&models.PrivilegeGrant{},
		&models.AuditLog{},
	); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database migrations completed")

	// Seed the leave-type catalog
	if cfg.SeedLeaveTypes {
		if err := seeders.SeedLeaveTypes(db); err != nil {
			logger.Warnf("Failed to seed leave types: %v", err)
		}
	}

	// Initialize repositories
	leaveRepo := repository.NewLeaveRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	privilegeRepo := repository.NewPrivilegeRepository(db)

	// Initialize grant cache (degrades to direct DB reads when Redis is down)
	grantCache, err := cache.NewGrantCache(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB, cfg.GrantCacheTTL)
	if err != nil {
		logger.Warnf("Failed to initialize grant cache: %v", err)
	}
	if grantCache != nil && grantCache.IsAvailable() {
		logger.Info("Grant cache initialized")
		defer grantCache.Close()
	} else {
		logger.Info("Grant cache unavailable, privilege checks will read the database directly")
	}

	// Initialize audit sink
	auditor := audit.NewSink(db, logger)

	// Initialize services
	resolver := services.NewApproverResolver(directoryRepo)
	leaveService := services.NewLeaveService(leaveRepo, resolver, auditor)
	privilegeService := services.NewPrivilegeService(privilegeRepo, grantCache)

	// Initialize handlers
	leaveHandler := handlers.NewLeaveHandler(leaveService)
	privilegeHandler := handlers.NewPrivilegeHandler(privilegeService)

	// Start grant expiry job
	expiryJob := jobs.NewGrantExpiryJob(privilegeRepo, privilegeService, auditor, logger,
		time.Duration(cfg.GrantSweepPeriod)*time.Second)
	jobCtx, jobCancel := context.WithCancel(context.Background())
	go expiryJob.Start(jobCtx)
	logger.Info("Grant expiry job started")

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck)

	// Protected API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	// Leave workflow endpoints
	{
		api.POST("/leaves", leaveHandler.SubmitLeave)
		api.GET("/leaves", leaveHandler.ListMyLeaves)
		api.GET("/leaves/inbox", leaveHandler.ListApprovalInbox)
		api.GET("/leaves/:id", leaveHandler.GetLeave)
		api.DELETE("/leaves/:id", leaveHandler.CancelLeave)
		api.POST("/leaves/:id/action", leaveHandler.ActOnLeave)
		api.GET("/leaves/:id/history", leaveHandler.GetLeaveHistory)
		api.GET("/leave-types", leaveHandler.ListLeaveTypes)
	}

	// Privilege endpoints
	{
		api.GET("/privileges/mine", privilegeHandler.ListMyGrants)
		api.POST("/privileges/check", privilegeHandler.CheckPrivilege)
		api.POST("/privileges/assert", privilegeHandler.AssertPrivilege)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8094"
	}

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Infof("Workforce service starting on port %s", port)
		if err := router.Run(":" + port); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	logger.Info("Shutting down server...")

	// Stop background jobs
	jobCancel()
	expiryJob.Stop()
	logger.Info("Grant expiry job stopped")

	logger.Info("Server shutdown complete")
}

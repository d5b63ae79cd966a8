package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusops/escolar-api/api/swagger"
	"github.com/campusops/escolar-api/internal/handler"
	"github.com/campusops/escolar-api/internal/middleware"
	"github.com/campusops/escolar-api/internal/repository"
	"github.com/campusops/escolar-api/internal/service"
	"github.com/campusops/escolar-api/pkg/cache"
	"github.com/campusops/escolar-api/pkg/config"
	"github.com/campusops/escolar-api/pkg/database"
	"github.com/campusops/escolar-api/pkg/logger"
	corsmiddleware "github.com/campusops/escolar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusops/escolar-api/pkg/middleware/requestid"
)

// @title Escolar API
// @version 0.1.0
// @description Seat allocation, enrollment and student transfer service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	if cfg.Availability.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, availability cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close()
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Availability.CacheTTL, logr, cacheRepo != nil)

	validate := validator.New()

	personRepo := repository.NewPersonRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	seatRepo := repository.NewSeatRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	transferLogRepo := repository.NewTransferLogRepository(db)

	seatSvc := service.NewSeatService(seatRepo, catalogRepo, cacheSvc, metricsSvc, logr, cfg.Intake.DefaultSectionCapacity)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, seatSvc, db, validate, logr)
	transferSvc := service.NewTransferService(personRepo, catalogRepo, assignmentRepo, seatSvc, enrollmentRepo, transferLogRepo, db, validate, logr, metricsSvc)
	intakeSvc := service.NewIntakeService(personRepo, catalogRepo, assignmentRepo, seatSvc, enrollmentRepo, paymentRepo, db, cfg.Intake, validate, logr, metricsSvc)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, paymentRepo, assignmentRepo, seatSvc, db, logr)
	studentSvc := service.NewStudentService(personRepo)
	catalogSvc := service.NewCatalogService(catalogRepo, seatSvc, db, validate, logr)

	studentHandler := handler.NewStudentHandler(studentSvc, assignmentSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, intakeSvc)
	transferHandler := handler.NewTransferHandler(transferSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc, seatSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/students", studentHandler.List)
		api.GET("/students/:id", studentHandler.Get)
		api.GET("/students/:id/placement", studentHandler.Placement)
		api.GET("/guardians/lookup", studentHandler.FindGuardian)

		api.GET("/enrollments", enrollmentHandler.List)
		api.POST("/enrollments", enrollmentHandler.Create)
		api.POST("/enrollments/intake", enrollmentHandler.Intake)
		api.GET("/enrollments/:id", enrollmentHandler.Get)
		api.PUT("/enrollments/:id/status", enrollmentHandler.UpdateStatus)
		api.GET("/enrollments/:id/payments", enrollmentHandler.Payments)
		api.DELETE("/enrollments/:id", enrollmentHandler.Delete)

		api.POST("/transfers", transferHandler.Transfer)
		api.POST("/transfers/bulk", transferHandler.TransferBulk)
		api.GET("/transfers", transferHandler.ListLogs)

		api.POST("/assignments", assignmentHandler.Assign)
		api.DELETE("/assignments", assignmentHandler.Unassign)

		api.GET("/grades", catalogHandler.ListGrades)
		api.GET("/grades/:id/sections", catalogHandler.ListSections)
		api.GET("/grades/:id/availability", catalogHandler.Availability)
		api.GET("/school-years", catalogHandler.ListSchoolYears)
		api.GET("/school-years/active", catalogHandler.ActiveSchoolYear)
		api.PUT("/sections/:id/capacity", catalogHandler.ResizeSection)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/api/swagger"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/handler"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/middleware"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/repository"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/service"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/cache"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/config"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/database"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/export"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/logger"
	corsmiddleware "github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/middleware/cors"
	reqidmiddleware "github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/middleware/requestid"
)

// @title PCCOER Help Desk API
// @version 1.0.0
// @description Bonafide certificate application workflow and admin console API
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient, cfg.Verification.SessionTTL)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "pccoer-help-desk",
	})

	notificationSvc := service.NewNotificationService(&service.LogSender{Logger: logr}, cfg.Notifications, logr)
	notificationSvc.Start(context.Background())
	defer notificationSvc.Stop()

	verificationSvc := service.NewVerificationService(sessionRepo, studentRepo, applicationRepo, metricsSvc, logr)
	applicationSvc := service.NewApplicationService(applicationRepo, notificationSvc, metricsSvc, logr)

	renderer := export.NewCertificateExporter(cfg.Certificate.TemplateImagePath)
	certificateSvc := service.NewCertificateService(applicationRepo, renderer, cfg.Certificate, metricsSvc, logr)

	verificationHandler := handler.NewVerificationHandler(verificationSvc)
	applicationHandler := handler.NewApplicationHandler(applicationSvc, certificateSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group(cfg.APIPrefix)
	{
		v1.POST("/events", verificationHandler.HandleEvent)

		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		applications := v1.Group("/applications")
		applications.Use(middleware.JWT(authSvc))
		applications.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
		{
			applications.GET("", applicationHandler.List)
			applications.GET("/export.csv", applicationHandler.ExportCSV)
			applications.GET("/:id", applicationHandler.Get)
			applications.PATCH("/:id/status",
				middleware.Audit(userRepo, models.AuditActionStatusChange, "application"),
				applicationHandler.UpdateStatus)
			applications.GET("/:id/certificate", applicationHandler.Certificate)
			applications.GET("/:id/certificate/pdf",
				middleware.Audit(userRepo, models.AuditActionCertificate, "application"),
				applicationHandler.CertificatePDF)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

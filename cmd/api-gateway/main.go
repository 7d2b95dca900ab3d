package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/docflow-api/api/swagger"
	"github.com/noah-isme/docflow-api/internal/handler"
	"github.com/noah-isme/docflow-api/internal/middleware"
	"github.com/noah-isme/docflow-api/internal/models"
	"github.com/noah-isme/docflow-api/internal/repository"
	"github.com/noah-isme/docflow-api/internal/service"
	"github.com/noah-isme/docflow-api/pkg/cache"
	"github.com/noah-isme/docflow-api/pkg/config"
	"github.com/noah-isme/docflow-api/pkg/database"
	"github.com/noah-isme/docflow-api/pkg/jobs"
	"github.com/noah-isme/docflow-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/docflow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/docflow-api/pkg/middleware/requestid"
	"github.com/noah-isme/docflow-api/pkg/storage"
)

// @title DocFlow API
// @version 0.1.0
// @description Project document approval tracking
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	registerRepo := repository.NewRegisterJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(
		cacheRepo,
		metricsService,
		cfg.Dashboard.CacheTTL,
		logr,
		cfg.Dashboard.Enabled && redisClient != nil,
	)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "docflow-api",
	})

	attachmentStore, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init attachment storage", "error", err)
	}
	attachmentSigner := storage.NewSignedURLSigner(cfg.Attachments.SignedURLSecret, cfg.Attachments.SignedURLTTL)

	documentService := service.NewDocumentService(
		documentRepo,
		projectRepo,
		userRepo,
		userRepo,
		cacheService,
		metricsService,
		attachmentStore,
		attachmentSigner,
		validate,
		logr,
	)

	dashboardService := service.NewDashboardService(documentRepo, userRepo, cacheService, cfg.Dashboard.CacheTTL, logr)
	projectService := service.NewProjectService(projectRepo, logr)
	userService := service.NewUserService(userRepo, logr)

	registerStore, err := storage.NewLocalStorage(cfg.Registers.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init register storage", "error", err)
	}
	registerSigner := storage.NewSignedURLSigner(cfg.Registers.SignedURLSecret, cfg.Registers.SignedURLTTL)

	registerService := service.NewRegisterService(
		registerRepo,
		documentRepo,
		userRepo,
		registerStore,
		registerSigner,
		validate,
		logr,
		jobs.QueueConfig{
			Workers:    cfg.Registers.WorkerConcurrency,
			MaxRetries: cfg.Registers.WorkerRetries,
			Logger:     logr,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Registers.Enabled {
		registerService.StartWorkers(ctx)
		defer registerService.StopWorkers()

		// Expired export files are only reachable through signed URLs
		// that have long since lapsed, so a periodic sweep reclaims disk.
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					removed, err := registerStore.CleanupOlderThan(cfg.Registers.RetentionTTL)
					if err != nil {
						logr.Sugar().Warnw("register storage cleanup failed", "error", err)
						continue
					}
					if len(removed) > 0 {
						logr.Sugar().Infow("expired register exports removed", "count", len(removed))
					}
				}
			}
		}()
	}

	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(documentService, cfg.Attachments.MaxFileSizeBytes)
	projectHandler := handler.NewProjectHandler(projectService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	registerHandler := handler.NewRegisterHandler(registerService)
	userHandler := handler.NewUserHandler(userService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/health/metrics", metricsHandler.Snapshot)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		authed := auth.Group("", middleware.JWT(authService))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
	}

	protected := api.Group("", middleware.JWT(authService))
	{
		docs := protected.Group("/documents")
		docs.GET("", documentHandler.List)
		docs.GET("/download",
			middleware.Audit(userRepo, models.AuditActionDocumentDownload, "documents"),
			documentHandler.Download)
		docs.GET("/:id", documentHandler.Get)
		docs.POST("", middleware.RequireRoles(models.RoleCoordinator, models.RoleDirector), documentHandler.Create)
		docs.POST("/:id/actions", documentHandler.Action)
		docs.POST("/:id/comments", documentHandler.Comment)
		docs.POST("/:id/attachments", documentHandler.Attach)

		projects := protected.Group("/projects")
		projects.GET("", projectHandler.List)
		projects.GET("/:id", projectHandler.Get)

		dashboard := protected.Group("/dashboard")
		dashboard.GET("", dashboardHandler.Summary)
		dashboard.GET("/departments",
			middleware.RequireRoles(models.RoleCoordinator, models.RoleDirector),
			dashboardHandler.Departments)

		registers := protected.Group("/registers")
		registers.POST("", registerHandler.Create)
		registers.GET("", registerHandler.List)
		registers.GET("/download",
			middleware.Audit(userRepo, models.AuditActionRegisterDownload, "registers"),
			registerHandler.Download)
		registers.GET("/:id", registerHandler.Status)

		protected.GET("/users/me", userHandler.Me)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

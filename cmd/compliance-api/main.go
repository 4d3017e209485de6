package main

import (
	"context"
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

	_ "github.com/caseflow/iep-compliance-api/api/swagger"
	"github.com/caseflow/iep-compliance-api/internal/handler"
	"github.com/caseflow/iep-compliance-api/internal/middleware"
	"github.com/caseflow/iep-compliance-api/internal/repository"
	"github.com/caseflow/iep-compliance-api/internal/service"
	"github.com/caseflow/iep-compliance-api/pkg/cache"
	"github.com/caseflow/iep-compliance-api/pkg/config"
	"github.com/caseflow/iep-compliance-api/pkg/database"
	"github.com/caseflow/iep-compliance-api/pkg/jobs"
	"github.com/caseflow/iep-compliance-api/pkg/logger"
	corsmiddleware "github.com/caseflow/iep-compliance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/caseflow/iep-compliance-api/pkg/middleware/requestid"
	"github.com/caseflow/iep-compliance-api/pkg/storage"
)

// @title IEP Compliance API
// @version 1.0.0
// @description Compliance monitoring and analytics engine for IEP case management
// @BasePath /
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	caseRepo := repository.NewCaseRepository(db)
	observationRepo := repository.NewObservationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Analytics.CacheTTL, logr, cfg.Analytics.Enabled)
	authService := service.NewAuthService(cfg.JWT.Secret)

	accessor := service.NewRecordAccessor(caseRepo)
	analyticsService := service.NewAnalyticsService(accessor, cacheService, metricsService, logr, service.AnalyticsServiceConfig{
		CacheTTL:     cfg.Analytics.CacheTTL,
		TrendBuckets: cfg.Analytics.TrendBuckets,
	})

	notificationService := service.NewNotificationService(notificationRepo, validate, logr, service.NotificationServiceConfig{
		DefaultPageSize: cfg.Notifications.DefaultPageSize,
		MaxPageSize:     cfg.Notifications.MaxPageSize,
	})

	complianceService := service.NewComplianceService(accessor, observationRepo, notificationService, metricsService, logr, service.ComplianceConfig{
		DueSoonWindow:   cfg.Compliance.DueSoonWindow,
		UpcomingWindow:  cfg.Compliance.UpcomingWindow,
		StaleGoalWindow: cfg.Compliance.StaleGoalWindow,
		DedupEnabled:    cfg.Compliance.DedupEnabled,
		ScanTimeout:     cfg.Compliance.ScanTimeout,
	})

	snapshotWorker := service.NewSnapshotWorker(snapshotRepo, analyticsService, cfg.Reports.WorkerRetries, logr)
	reportQueue := jobs.NewQueue("report-snapshots", snapshotWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportQueue.Start(ctx)
	defer reportQueue.Stop()
	metricsService.RegisterQueueDepth("report-snapshots", reportQueue.Depth)

	reportService := service.NewReportService(snapshotRepo, reportQueue, validate, logr, service.ReportServiceConfig{
		MaxRetries: cfg.Reports.WorkerRetries,
	})
	reportService.RecoverPending(ctx)

	localStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportService := service.NewExportService(snapshotRepo, localStorage, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.ResultTTL,
	}, logr)
	exportService.StartCleanup(ctx, cfg.Reports.CleanupInterval)

	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	complianceHandler := handler.NewComplianceHandler(complianceService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	reportHandler := handler.NewReportHandler(reportService, exportService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/export/:token", reportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))
	{
		protected.GET("/analytics/overview", analyticsHandler.Overview)
		protected.POST("/compliance/scan", complianceHandler.Scan)
		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
		protected.PATCH("/notifications/read-all", notificationHandler.MarkAllRead)
		protected.POST("/reports", reportHandler.Create)
		protected.GET("/reports", reportHandler.List)
		protected.GET("/reports/:id", reportHandler.Get)
		protected.POST("/reports/:id/export", reportHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sealbase/sealbase-api/api/swagger"
	"github.com/sealbase/sealbase-api/internal/handler"
	"github.com/sealbase/sealbase-api/internal/middleware"
	"github.com/sealbase/sealbase-api/internal/models"
	"github.com/sealbase/sealbase-api/internal/repository"
	"github.com/sealbase/sealbase-api/internal/service"
	"github.com/sealbase/sealbase-api/pkg/cache"
	"github.com/sealbase/sealbase-api/pkg/config"
	"github.com/sealbase/sealbase-api/pkg/database"
	"github.com/sealbase/sealbase-api/pkg/jobs"
	"github.com/sealbase/sealbase-api/pkg/logger"
	corsmiddleware "github.com/sealbase/sealbase-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sealbase/sealbase-api/pkg/middleware/requestid"
	"github.com/sealbase/sealbase-api/pkg/pdf"
	"github.com/sealbase/sealbase-api/pkg/storage"
)

// @title Sealbase API
// @version 1.0.0
// @description Document signing workflow engine: submissions, submitters and generated artifacts.
// @BasePath /
// @schemes http https
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
		logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		redisClient = nil
	}

	fileStore, err := storage.NewLocalStorage(cfg.Storage.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	submitterRepo := repository.NewSubmitterRepository(db)
	eventRepo := repository.NewEventRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	appConfigSvc := service.NewAppConfigService(settingsRepo, cacheRepo, logr, cfg.App.BaseURL, cfg.App.BaseURLTTL)
	authSvc := service.NewAuthService(userRepo, appConfigSvc, logr, cfg.JWT.Secret, cfg.JWT.Expiration)
	ability := service.NewRuleAbility()
	normalizerSvc := service.NewNormalizerService(logr)
	serializerSvc := service.NewSerializerService(appConfigSvc, signer, userRepo, logr)
	artifactSvc := service.NewArtifactService(
		documentRepo, eventRepo,
		pdf.NewResultRenderer(cfg.App.ProductName),
		pdf.NewAuditTrailRenderer(cfg.App.ProductName),
		fileStore, metricsSvc, logr, cfg.Generation.Timeout,
	)

	var (
		notificationSvc *service.NotificationService
		trackerSvc      *service.TrackerService
	)
	queue := jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		switch job.Type {
		case service.JobSignatureRequest:
			return notificationSvc.HandleSignatureRequest(ctx, job)
		case service.JobSubmitterCompleted:
			if err := trackerSvc.ProcessCompletedSubmitter(ctx, job.ID); err != nil {
				return err
			}
			return notificationSvc.HandleSubmitterCompleted(ctx, job)
		default:
			return fmt.Errorf("unknown job type %q", job.Type)
		}
	}, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	notificationSvc = service.NewNotificationService(queue, submitterRepo, logr)
	trackerSvc = service.NewTrackerService(submitterRepo, submissionRepo, templateRepo, eventRepo, artifactSvc, notificationSvc, logr, cfg.Ordering.EnforceCompletion)
	submissionSvc := service.NewSubmissionService(
		submissionRepo, submitterRepo, templateRepo, eventRepo, documentRepo,
		normalizerSvc, serializerSvc, artifactSvc, notificationSvc, trackerSvc,
		ability, logr,
	)

	queueCtx, stopQueue := context.WithCancel(context.Background())
	defer stopQueue()
	queue.Start(queueCtx)
	defer queue.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc)
	submitterHandler := handler.NewSubmitterHandler(submissionSvc)
	documentHandler := handler.NewDocumentHandler(signer, documentRepo, fileStore)
	configHandler := handler.NewConfigHandler(appConfigSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Tracking())

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

	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/magic-login", authHandler.MagicLogin)
	api.POST("/auth/magic-link", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleSuperadmin), authHandler.MagicLink)

	// Public signing surface, addressed by slug and signed token.
	api.GET("/submitters/:slug", submitterHandler.Show)
	api.POST("/submitters/:slug/complete", submitterHandler.Complete)
	api.GET("/documents/:token", documentHandler.Download)

	authed := api.Group("", middleware.JWT(authSvc))
	authed.GET("/submissions", submissionHandler.Index)
	authed.POST("/submissions", submissionHandler.Create)
	authed.GET("/submissions/:id", submissionHandler.Show)
	authed.DELETE("/submissions/:id", submissionHandler.Destroy)
	authed.GET("/config/app-url", configHandler.GetAppURL)
	authed.PUT("/config/app-url", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperadmin), configHandler.UpdateAppURL)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

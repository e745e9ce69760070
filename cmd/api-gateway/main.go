package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-substitution-api/api/swagger"
	"github.com/noah-isme/sma-substitution-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-substitution-api/internal/middleware"
	"github.com/noah-isme/sma-substitution-api/internal/repository"
	"github.com/noah-isme/sma-substitution-api/internal/service"
	"github.com/noah-isme/sma-substitution-api/pkg/cache"
	"github.com/noah-isme/sma-substitution-api/pkg/config"
	"github.com/noah-isme/sma-substitution-api/pkg/database"
	"github.com/noah-isme/sma-substitution-api/pkg/export"
	"github.com/noah-isme/sma-substitution-api/pkg/jobs"
	"github.com/noah-isme/sma-substitution-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-substitution-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-substitution-api/pkg/middleware/requestid"
)

// @title SMA Substitution API
// @version 1.0.0
// @description Teacher leave intake and substitute assignment
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
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, continuing without cache and rate limiting", zap.Error(err))
	} else {
		defer redisClient.Close()
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	var cacheClient redis.Cmdable
	var counter cache.Counter
	if redisClient != nil {
		cacheClient = redisClient
		counter = redisClient
	}

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	absenceRepo := repository.NewAbsenceRepository(db)
	substitutionRepo := repository.NewSubstitutionRepository(db)
	workloadRepo := repository.NewWorkloadRepository(db)
	configRepo := repository.NewAssignmentConfigRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(cacheClient, logr)

	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	notificationSvc := service.NewNotificationService(notificationRepo, metricsSvc, logr)
	notificationQueue := jobs.NewQueue("notifications", notificationSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.Retries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
		OnFinish:   notificationSvc.Finished,
	})
	notificationSvc.AttachQueue(notificationQueue)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	notificationQueue.Start(rootCtx)

	configSvc := service.NewAssignmentConfigService(configRepo, service.AssignmentConfigServiceOptions{
		Cache:     cacheRepo,
		Audit:     auditRepo,
		Metrics:   metricsSvc,
		Defaults:  cfg.Assignment,
		CacheTTL:  cfg.Substitution.ConfigCacheTTL,
		Validator: validate,
		Logger:    logr,
	})

	stores := service.SubstitutionStores{
		Teachers:  teacherRepo,
		Timetable: timetableRepo,
		Absences:  absenceRepo,
		Classes:   classRepo,
		Records:   substitutionRepo,
		Workload:  workloadRepo,
	}

	window, err := service.NewSubmissionWindow(cfg.Substitution)
	if err != nil {
		logr.Fatal("invalid submission window", zap.Error(err))
	}

	leaveSvc := service.NewLeaveService(db, stores, configSvc, window, logr,
		service.WithLeaveNotifier(notificationSvc),
		service.WithLeaveAudit(auditRepo),
		service.WithLeaveMetrics(metricsSvc),
		service.WithLeaveValidator(validate),
	)
	substitutionSvc := service.NewSubstitutionService(db, stores, configSvc, logr,
		service.WithSubstitutionNotifier(notificationSvc),
		service.WithSubstitutionAudit(auditRepo),
		service.WithSubstitutionMetrics(metricsSvc),
		service.WithSubstitutionValidator(validate),
	)
	reportSvc := service.NewSubstitutionReportService(substitutionRepo, teacherRepo, classRepo, cfg.Substitution.ReportTitlePrefix, logr, export.NewCSVExporter(), export.NewPDFExporter())

	leaveLimiter := cache.NewRateLimiter(counter, "leave", cfg.Substitution.LeaveRateLimit, cfg.Substitution.LeaveRateWindow)

	authHandler := handler.NewAuthHandler(authSvc)
	leaveHandler := handler.NewLeaveHandler(leaveSvc)
	substitutionHandler := handler.NewSubstitutionHandler(substitutionSvc, reportSvc)
	configHandler := handler.NewAssignmentConfigHandler(configSvc)

	checks := map[string]handler.Pinger{"database": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))
	secured.GET("/auth/me", authHandler.Me)
	secured.GET("/metrics/summary", internalmiddleware.RequireManager(), metricsHandler.Summary)

	if cfg.Substitution.Enabled {
		secured.POST("/leaves", internalmiddleware.RateLimit(leaveLimiter, logr), leaveHandler.Submit)

		subs := secured.Group("/substitutions")
		subs.GET("", substitutionHandler.List)
		subs.GET("/candidates", internalmiddleware.RequireManager(), substitutionHandler.Candidates)
		subs.GET("/export", internalmiddleware.RequireManager(), substitutionHandler.Export)
		subs.GET("/:id", substitutionHandler.Get)
		subs.POST("/:id/confirm", substitutionHandler.Confirm)
		subs.POST("/:id/cancel", substitutionHandler.Cancel)
		subs.POST("/:id/replacement", substitutionHandler.RequestReplacement)
		subs.POST("/:id/assign", internalmiddleware.RequireManager(), substitutionHandler.AssignManually)
		subs.POST("/:id/retry", internalmiddleware.RequireManager(), substitutionHandler.RetryAssignment)
		subs.POST("/:id/complete", substitutionHandler.Complete)

		secured.GET("/assignment-config", configHandler.Get)
		secured.PUT("/assignment-config", internalmiddleware.RequireManager(), configHandler.Update)
	} else {
		logr.Info("substitution endpoints disabled")
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

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	notificationQueue.Stop()
}

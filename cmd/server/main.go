// Package main runs the volunteer platform HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/volunteerhub/backend/config"
	"github.com/volunteerhub/backend/internal/events"
	"github.com/volunteerhub/backend/internal/middleware"
	"github.com/volunteerhub/backend/internal/models"
	"github.com/volunteerhub/backend/internal/organizations"
	"github.com/volunteerhub/backend/internal/registrations"
	"github.com/volunteerhub/backend/internal/users"
	"github.com/volunteerhub/backend/internal/volunteers"
	"github.com/volunteerhub/backend/internal/worker"
	"github.com/volunteerhub/backend/pkg/database"
	"github.com/volunteerhub/backend/pkg/queue"
	"github.com/volunteerhub/backend/pkg/redis"
	"github.com/volunteerhub/backend/pkg/response"
	"github.com/volunteerhub/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Cfg := storage.S3Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		ImagesBucket:    cfg.AWS.ImagesBucket,
	}
	s3Client, err := storage.NewS3(ctx, s3Cfg, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Events
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, s3Client, jobQueue, logger)

	// Organizations
	orgRepo := organizations.NewRepository(pool)
	orgHandler := organizations.NewHandler(orgRepo, s3Client, jobQueue, logger)

	// Volunteers
	volunteerRepo := volunteers.NewRepository(pool)
	volunteerHandler := volunteers.NewHandler(volunteerRepo, s3Client, jobQueue, logger)

	// Registrations
	registrationRepo := registrations.NewRepository(pool)
	registrationHandler := registrations.NewHandler(registrationRepo, logger)

	// User profiles; the repository also resolves roles for route gating.
	userRepo := users.NewRepository(pool)
	userHandler := users.NewHandler(userRepo)

	cleanupProcessor := worker.NewCleanupProcessor(s3Client, jobQueue, logger)

	identity := middleware.Identity(cfg.Auth.JWTSecret)
	orgOnly := middleware.RequireRole(userRepo, models.RoleOrganization)
	volunteerOnly := middleware.RequireRole(userRepo, models.RoleVolunteer)
	anyRole := middleware.RequireRole(userRepo, models.RoleVolunteer, models.RoleOrganization)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	event := router.Group("/event")
	{
		event.GET("/get-events", eventHandler.List)
		event.GET("/get-event/:event_id", eventHandler.GetByID)
		event.GET("/get-org-events/:o_id", eventHandler.ListByOrganization)
		event.GET("/search-events", eventHandler.Search)
		event.POST("/create-event", identity, orgOnly, eventHandler.Create)
		event.PUT("/update-event/:event_id", identity, orgOnly, eventHandler.Update)
		event.DELETE("/delete-event/:event_id", identity, orgOnly, eventHandler.Delete)
	}

	organization := router.Group("/organization")
	{
		organization.GET("/get-organizations", orgHandler.List)
		organization.GET("/get-organization/:o_id", orgHandler.GetByID)
		organization.GET("/get-organization-by-auth/:auth_id", orgHandler.GetByAuthID)
		// Creation happens before the role row exists; identity is enough.
		organization.POST("/create-organization", identity, orgHandler.Create)
		organization.PUT("/update-organization/:o_id", identity, orgOnly, orgHandler.Update)
		organization.DELETE("/delete-organization/:o_id", identity, orgOnly, orgHandler.Delete)
	}

	volunteer := router.Group("/volunteer")
	{
		volunteer.GET("/get-volunteers", volunteerHandler.List)
		volunteer.GET("/get-volunteer/:v_id", volunteerHandler.GetByID)
		volunteer.GET("/get-volunteer-by-auth/:auth_id", volunteerHandler.GetByAuthID)
		volunteer.POST("/create-volunteer", identity, volunteerHandler.Create)
		volunteer.PUT("/update-volunteer/:v_id", identity, volunteerOnly, volunteerHandler.Update)
		volunteer.DELETE("/delete-volunteer/:v_id", identity, volunteerOnly, volunteerHandler.Delete)
	}

	registration := router.Group("/registration")
	{
		registration.GET("/get-registrations", registrationHandler.List)
		registration.GET("/get-user-registrations/:v_id", registrationHandler.ListByVolunteer)
		registration.GET("/get-event-registrations/:event_id", registrationHandler.ListByEvent)
		registration.POST("/create-registration", identity, volunteerOnly, registrationHandler.Create)
		registration.PUT("/approve-registration/:v_id/:event_id", identity, orgOnly, registrationHandler.Approve)
		registration.DELETE("/delete-registration/:v_id/:event_id", identity, anyRole, registrationHandler.Delete)
	}

	user := router.Group("/user")
	{
		user.GET("/get-user/:u_id", userHandler.GetByID)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (deferred image deletion)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go cleanupProcessor.Run(workerCtx)
	logger.Info("cleanup worker started")

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

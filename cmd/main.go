package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/courtflow/scheduler/config"
	"github.com/courtflow/scheduler/db"
	"github.com/courtflow/scheduler/handlers"
	"github.com/courtflow/scheduler/mq"
	"github.com/courtflow/scheduler/repositories"
	"github.com/courtflow/scheduler/routes"
	"github.com/courtflow/scheduler/schedule"
	"github.com/courtflow/scheduler/services"
	"github.com/courtflow/scheduler/storage"
	"github.com/courtflow/scheduler/ws"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var publisher services.EventPublisher = mq.NoopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", slog.Any("error", err))
			os.Exit(1)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		logger.Info("rabbitmq publisher initialized", slog.String("exchange", cfg.AMQPExchange))
	} else {
		logger.Warn("AMQP_URL not set, domain events will not be published")
	}

	var uploader storage.FileUploader = storage.DisabledUploader{}
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Warn("R2 not configured, schedule exports disabled")
	}

	wsHub := ws.NewHub(logger)
	go wsHub.Run()

	templateRepo := repositories.NewPostgresTemplateRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	divisionRepo := repositories.NewPostgresDivisionRepository(dbConn)
	encounterRepo := repositories.NewPostgresEncounterRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)
	timeBlockRepo := repositories.NewPostgresTimeBlockRepository(dbConn)

	allocator := schedule.NewAllocator(nil)

	templateService := services.NewTemplateService(templateRepo, publisher, logger)
	bracketService := services.NewBracketService(dbConn, templateRepo, divisionRepo, encounterRepo, logger)
	scheduleService := services.NewScheduleService(
		eventRepo, divisionRepo, courtRepo, timeBlockRepo, encounterRepo,
		allocator, wsHub, publisher, uploader, logger,
	)
	courtService := services.NewCourtService(courtRepo, logger)
	timeBlockService := services.NewTimeBlockService(timeBlockRepo, eventRepo, divisionRepo, logger)

	router := routes.SetupRoutes(routes.Handlers{
		Template:  handlers.NewTemplateHandler(templateService),
		Bracket:   handlers.NewBracketHandler(bracketService),
		Schedule:  handlers.NewScheduleHandler(scheduleService),
		Court:     handlers.NewCourtHandler(courtService),
		TimeBlock: handlers.NewTimeBlockHandler(timeBlockService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, logger),
	}, cfg.JWTSecretKey)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		}
	}
	logger.Info("server stopped")
}

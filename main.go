package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/studio-booking/config"
	"github.com/Eursukkul/studio-booking/internal/consumer"
	"github.com/Eursukkul/studio-booking/internal/handler"
	"github.com/Eursukkul/studio-booking/internal/middleware"
	"github.com/Eursukkul/studio-booking/internal/repository"
	"github.com/Eursukkul/studio-booking/internal/service"
	"github.com/Eursukkul/studio-booking/internal/slots"
	"github.com/Eursukkul/studio-booking/internal/wizard"
	"github.com/Eursukkul/studio-booking/pkg/database"
	"github.com/Eursukkul/studio-booking/pkg/logger"
	"github.com/Eursukkul/studio-booking/pkg/rabbitmq"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	db, err := database.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		zl.Fatal("failed to open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}

	reservationRepo := repository.NewReservationRepository(db)
	resourceRepo := repository.NewResourceRepository(db)

	// RabbitMQ is optional: without it nothing is published and resources are
	// managed directly in the database.
	var publisher service.Publisher
	if cfg.RabbitURL != "" {
		mqPublisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, zl)
		if err != nil {
			zl.Fatal("failed to connect publisher to RabbitMQ", zap.Error(err))
		}
		defer mqPublisher.Close()
		publisher = mqPublisher

		mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, rabbitmq.ResourceQueue, rabbitmq.ResourceBindingKey, zl)
		if err != nil {
			zl.Fatal("failed to connect consumer to RabbitMQ", zap.Error(err))
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume()
		if err != nil {
			zl.Fatal("failed to start consuming", zap.Error(err))
		}
		consumer.NewResourceConsumer(resourceRepo, zl).Start(msgs)
	}

	var sessions wizard.SessionStore
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			zl.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		sessions = wizard.NewRedisStore(rdb, cfg.SessionTTL)
	default:
		sessions = wizard.NewMemoryStore(cfg.SessionTTL, time.Now)
	}

	// Services
	catalog := slots.NewCatalog(reservationRepo)
	coordinator := service.NewReservationCoordinator(reservationRepo, resourceRepo, publisher, zl)
	reports := service.NewReportService(reservationRepo, publisher, time.Now, zl)
	wz := wizard.New(sessions, catalog, resourceRepo, coordinator, wizard.Options{
		RejectPastDates: cfg.RejectPastDates,
		Now:             time.Now,
	}, zl)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler(zl)
	e.Use(middleware.RequestLogger(zl))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "studio-booking"})
	})

	handler.NewWizardHandler(wz, cfg.WebhookSecret).RegisterRoutes(e)
	handler.NewReportHandler(reports, catalog, resourceRepo).RegisterRoutes(e)

	go func() {
		zl.Info("studio booking starting", zap.String("port", cfg.ServerPort), zap.String("db", cfg.DBDriver))
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		zl.Error("shutdown", zap.Error(err))
	}
	zl.Info("studio booking stopped")
}

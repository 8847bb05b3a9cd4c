package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/eduline/liveclass/internal/app"
	"github.com/eduline/liveclass/internal/auth"
	"github.com/eduline/liveclass/internal/broadcast"
	"github.com/eduline/liveclass/internal/config"
	"github.com/eduline/liveclass/internal/controller"
	"github.com/eduline/liveclass/internal/model"
	"github.com/eduline/liveclass/internal/repository"
	"github.com/eduline/liveclass/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting live class server",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.ServerPort),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	// Репозитории
	sessionRepo := repository.NewSessionRepository(pool)
	participantRepo := repository.NewParticipantRepository(pool)
	grantRepo := repository.NewAccessGrantRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	childRepo := repository.NewChildRepository(pool)
	lessonRepo := repository.NewLessonRepository(pool)

	// Рассылка и токены
	hub := broadcast.NewHub(logger)
	tokens := auth.NewTokenManager(cfg.JWTSecret)
	roomTokens := auth.NewRoomTokenManager(cfg.JWTSecret)

	// Сервисы
	accessService := service.NewAccessService(grantRepo, logger)
	sessionService := service.NewSessionService(sessionRepo, lessonRepo, userRepo, hub, roomTokens, logger)
	participantService := service.NewParticipantService(sessionRepo, participantRepo, childRepo, accessService, hub, logger)
	messageService := service.NewMessageService(sessionRepo, messageRepo, childRepo, accessService, hub, logger)

	// Хаб отмечает соединения детей в реестре участников
	hub.OnConnect = func(sessionID, clientID int64) {
		if clientID <= 0 {
			return
		}
		if err := participantService.SetConnectionStatus(ctx, sessionID, clientID, model.ConnectionStatusConnected); err != nil {
			logger.Warn("Failed to mark participant connected", zap.Int64("session_id", sessionID), zap.Error(err))
		}
	}
	hub.OnDisconnect = func(sessionID, clientID int64) {
		if clientID <= 0 {
			return
		}
		if err := participantService.SetConnectionStatus(ctx, sessionID, clientID, model.ConnectionStatusDisconnected); err != nil {
			logger.Warn("Failed to mark participant disconnected", zap.Int64("session_id", sessionID), zap.Error(err))
		}
	}

	// Фоновое завершение брошенных занятий
	janitor := app.NewJanitor(sessionService, cfg.StaleSessionAfter, logger)
	janitor.Start(ctx)
	defer janitor.Stop()

	// HTTP
	fiberApp := fiber.New(fiber.Config{
		AppName:               "liveclass",
		DisableStartupMessage: cfg.Environment == "production",
	})

	router := controller.NewRouter(
		tokens,
		controller.NewSessionController(sessionService, logger),
		controller.NewParticipantController(participantService, logger),
		controller.NewMessageController(messageService, logger),
		controller.NewWSController(hub, tokens, participantService, logger),
	)
	router.Register(fiberApp)

	go func() {
		if err := fiberApp.Listen(":" + cfg.ServerPort); err != nil {
			logger.Fatal("Server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	if err := fiberApp.Shutdown(); err != nil {
		logger.Error("Failed to shut down server gracefully", zap.Error(err))
	}
}

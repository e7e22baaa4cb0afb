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

	"github.com/fogna/football-stats/config"
	"github.com/fogna/football-stats/db"
	"github.com/fogna/football-stats/handlers"
	"github.com/fogna/football-stats/live"
	"github.com/fogna/football-stats/repositories"
	api "github.com/fogna/football-stats/routes"
	"github.com/fogna/football-stats/services"
	"github.com/fogna/football-stats/storage"
	"github.com/go-chi/chi/v5"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("driver", cfg.DatabaseDriver))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx, dbConn, cfg.DatabaseDriver)
	cancelMigrate()
	if err != nil {
		logger.Error("failed to apply schema", slog.Any("error", err))
		os.Exit(1)
	}

	// Архив загруженных файлов: Cloudflare R2 или локальная папка
	uploader, err := newUploader(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize file archive", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация WebSocket Hub
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()
	hub := live.NewHub(logger)
	go hub.Run(appCtx)
	logger.Info("WebSocket Hub started")

	// Репозитории и сервисы
	matchRepo := repositories.NewMatchRepository(dbConn, cfg.DatabaseDriver)

	authService, err := services.NewAuthService(services.AuthConfig{
		Secret:             cfg.JWTSecretKey,
		TTL:                cfg.SessionTTL,
		AdminPassword:      cfg.AdminPassword,
		AdminPasswordHash:  cfg.AdminPasswordHash,
		ViewerPassword:     cfg.ViewerPassword,
		ViewerPasswordHash: cfg.ViewerPasswordHash,
	})
	if err != nil {
		logger.Error("failed to initialize auth service", slog.Any("error", err))
		os.Exit(1)
	}
	standingsService := services.NewStandingsService(matchRepo)
	importService := services.NewImportService(matchRepo, uploader, hub, logger)
	exportService := services.NewExportService(matchRepo, uploader, logger)
	dashboardService := services.NewDashboardService(matchRepo)
	logger.Info("Services initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:      handlers.NewAuthHandler(authService, cfg.SecureCookies),
		Standings: handlers.NewStandingsHandler(standingsService),
		Admin:     handlers.NewAdminHandler(importService, exportService, cfg.MaxUploadMB<<20),
		Dashboard: handlers.NewDashboardHandler(dashboardService),
		WebSocket: handlers.NewWebSocketHandler(hub, cfg.CORSAllowedOrigins),
		Health:    handlers.NewHealthHandler(dbConn),
	}, api.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		TokenParser:    authService,
		Logger:         logger,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

func newUploader(cfg *config.Config, logger *slog.Logger) (storage.FileUploader, error) {
	if cfg.R2Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
		return uploader, nil
	}

	uploader, err := storage.NewLocalDiskUploader(cfg.ArchiveDir)
	if err != nil {
		return nil, err
	}
	logger.Info("local file archive initialized", slog.String("dir", cfg.ArchiveDir))
	return uploader, nil
}

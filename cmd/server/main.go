package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photark/internal/api"
	"photark/internal/config"
	"photark/internal/metadata"
	"photark/internal/repository"
	"photark/internal/service"
	"photark/internal/storage"
	"photark/pkg/logger"

	"go.uber.org/zap"
)

const (
	AppName    = "photark"
	AppVersion = "0.1.0"

	ShutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application failed to start: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Starting photark",
		zap.String("version", AppVersion),
		zap.String("port", cfg.Server.Port),
		zap.Bool("development", cfg.IsDevelopment()))

	sharder, err := storage.NewSharder(cfg.Storage.ChunkWidth, cfg.Storage.Depth)
	if err != nil {
		return fmt.Errorf("invalid shard geometry: %w", err)
	}

	logger.Info("Initializing record store...", zap.String("type", cfg.Repo.Type))
	repo, err := repository.NewFileRepository(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize record store: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close record store", zap.Error(err))
		}
	}()

	logger.Info("Initializing content store...",
		zap.String("root", cfg.Storage.Root),
		zap.String("staging", cfg.Storage.StagingRoot))
	content, err := storage.NewFilesystemStore(cfg.Storage.Root, cfg.Storage.StagingRoot, sharder)
	if err != nil {
		return fmt.Errorf("failed to initialize content store: %w", err)
	}

	pyramids := storage.NewTilePyramid(cfg.Storage.Root, sharder,
		cfg.Tiles.Size, cfg.Tiles.Overlap, cfg.Tiles.Quality)

	logger.Info("Initializing metadata extractor...")
	extractor, err := metadata.NewExiftoolExtractor(cfg.Metadata.ExiftoolPath)
	if err != nil {
		return fmt.Errorf("failed to initialize metadata extractor: %w", err)
	}

	files := service.NewFileService(repo, content, pyramids, extractor, sharder, cfg)

	router := api.NewRouter(cfg, files)

	server := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        router.GetEngine(),
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", server.Addr),
			zap.String("mode", cfg.Server.GinMode))

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	logger.Info(AppName+" started successfully",
		zap.String("version", AppVersion),
		zap.String("port", cfg.Server.Port))

	return waitForShutdown(server, serverErrChan)
}

// waitForShutdown blocks until a shutdown signal or server error
func waitForShutdown(server *http.Server, serverErrChan chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		return err
	case sig := <-quit:
		logger.Info("Received shutdown signal, starting graceful shutdown...",
			zap.String("signal", sig.String()))
		return gracefulShutdown(server)
	}
}

// gracefulShutdown drains in-flight requests before exit
func gracefulShutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	logger.Info("Shutting down HTTP server...",
		zap.Duration("timeout", ShutdownTimeout))

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to gracefully shutdown server", zap.Error(err))
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server shut down successfully")
	return nil
}

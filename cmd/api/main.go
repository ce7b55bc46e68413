package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/quotation-service/internal/auth"
	"github.com/Dan9191/quotation-service/internal/config"
	"github.com/Dan9191/quotation-service/internal/database"
	"github.com/Dan9191/quotation-service/internal/handler"
	"github.com/Dan9191/quotation-service/internal/repository"
	"github.com/Dan9191/quotation-service/internal/service"
	"github.com/Dan9191/quotation-service/internal/utils/email"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	if cfg.JWTSecretFallback {
		logger.Warn("JWT_SECRET is not set; using the built-in development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Open(ctx, cfg.DBConn, cfg.DBConnectRetries, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Connected to database")

	if err := repository.Migrate(ctx, db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	monitor, err := database.NewMonitor(db, cfg.DBHealthInterval, logger)
	if err != nil {
		logger.Fatalf("Failed to start database monitor: %v", err)
	}
	monitor.Start()
	defer monitor.Stop()

	// Initialize layers
	tokens, err := auth.NewTokenManager(auth.TokenConfig{Secret: cfg.JWTSecret, ExpiresIn: cfg.JWTExpiresIn})
	if err != nil {
		logger.Fatalf("Failed to configure tokens: %v", err)
	}
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, repo, auth.NewBcryptHasher(cfg.BcryptCost), tokens, logger)
	if cfg.MailEnabled() {
		svc.SetNotifier(email.NewSender(cfg, logger))
	}
	h := handler.NewHandler(svc, logger)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(h, tokens),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Errorf("Server failed: %v", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received, shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
		return
	}
	if err := svc.DrainMail(shutdownCtx); err != nil {
		logger.Warnf("Welcome mails still pending at shutdown: %v", err)
	}
	logger.Info("Server closed")
}

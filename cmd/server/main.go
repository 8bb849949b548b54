package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/config"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/db"
	httpHandlers "github.com/mo0hamed-shoaib/naafe-backend/internal/http/handlers"
	httpRouter "github.com/mo0hamed-shoaib/naafe-backend/internal/http/router"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/logger"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/repository"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/service"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/ws"
)

func main() {
	// Context for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: load config: %v", err)
	}

	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: connect to database: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: run migrations: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Repositories.
	userRepo := repository.NewUserRepository(dbConn)
	jobRequestRepo := repository.NewJobRequestRepository(dbConn)
	offerRepo := repository.NewOfferRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Services.
	cache := service.NewCacheService()
	authService := service.NewAuthService(userRepo, tokenManager)
	jobRequestService := service.NewJobRequestService(jobRequestRepo)
	paymentService := service.NewPaymentService(paymentRepo, cache)
	notificationService := service.NewNotificationService(notificationRepo)
	offerService := service.NewOfferService(offerRepo, jobRequestRepo, paymentService, cache)

	// WebSockets.
	hub := ws.NewHub(ctx)
	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))
	go hub.Run()

	offerService.SetHub(hub)

	// HTTP handlers.
	authHandler := httpHandlers.NewAuthHandler(authService)
	jobRequestHandler := httpHandlers.NewJobRequestHandler(jobRequestService)
	offerHandler := httpHandlers.NewOfferHandler(offerService)
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(cfg, authHandler, jobRequestHandler, offerHandler, paymentHandler, notificationHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: shut down http server: %v", err)
		}
	}()

	log.Printf("main: HTTP server listening on port %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: server exited with error: %v", err)
	}
}

func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: close database: %v", err)
	}
}

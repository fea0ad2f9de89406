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

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shopspring/decimal"

	"github.com/sourpls22-ux/marketplace-backend/internal/config"
	"github.com/sourpls22-ux/marketplace-backend/internal/handler"
	"github.com/sourpls22-ux/marketplace-backend/internal/logging"
	"github.com/sourpls22-ux/marketplace-backend/internal/middleware"
	"github.com/sourpls22-ux/marketplace-backend/internal/repository"
	"github.com/sourpls22-ux/marketplace-backend/internal/service"
	"github.com/sourpls22-ux/marketplace-backend/internal/service/atlos"
	"github.com/sourpls22-ux/marketplace-backend/internal/service/reconcile"
	"github.com/sourpls22-ux/marketplace-backend/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("marketplace-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := runMigrations(cfg.MigrationsDir, cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	activationCost, err := decimal.NewFromString(cfg.ActivationCost)
	if err != nil {
		slog.Error("invalid activation cost", "value", cfg.ActivationCost, "error", err)
		os.Exit(1)
	}

	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	provider := atlos.NewClient(
		cfg.AtlosAPIURL, cfg.AtlosCheckoutURL,
		cfg.AtlosMerchantID, cfg.AtlosAPISecret,
		time.Duration(cfg.ProviderTimeoutS)*time.Second,
	)

	reconciler := reconcile.New(paymentRepo, userRepo, db, slog.Default())
	resyncSvc := service.NewResyncService(provider, reconciler)
	topupSvc := service.NewTopupService(paymentRepo, provider, db, cfg.FrontendURL)
	activationSvc := service.NewActivationService(profileRepo, userRepo, db, activationCost)

	sweeper := service.NewScheduler(
		paymentRepo, resyncSvc, slog.Default(),
		time.Duration(cfg.SweepIntervalS)*time.Second,
		time.Duration(cfg.SweepItemDelayMS)*time.Millisecond,
		cfg.SweepBatchSize,
	)
	pushWatcher := watcher.New(cfg.AtlosGatewayURL, resyncSvc, slog.Default())

	authHandler := handler.NewAuthHandler(userRepo, cfg.JWTSecret, time.Duration(cfg.JWTExpiryH)*time.Hour)
	webhookHandler := handler.NewWebhookHandler(reconciler, cfg.AtlosAPISecret)
	resyncHandler := handler.NewResyncHandler(resyncSvc)
	paymentHandler := handler.NewPaymentHandler(topupSvc, paymentRepo, userRepo)
	profileHandler := handler.NewProfileHandler(profileRepo, activationSvc)
	reviewHandler := handler.NewReviewHandler(reviewRepo)

	authed := middleware.Auth(cfg.JWTSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)

	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)

	mux.HandleFunc("POST /webhooks/payments", webhookHandler.ReceivePaymentWebhook)
	mux.HandleFunc("GET /payments/resync", resyncHandler.Resync)

	mux.Handle("POST /topup", authed(http.HandlerFunc(paymentHandler.CreateTopup)))
	mux.Handle("GET /me/payments", authed(http.HandlerFunc(paymentHandler.ListMyPayments)))
	mux.Handle("GET /me/balance", authed(http.HandlerFunc(paymentHandler.GetMyBalance)))
	mux.Handle("GET /me/profiles", authed(http.HandlerFunc(profileHandler.ListMine)))

	mux.HandleFunc("GET /profiles", profileHandler.List)
	mux.HandleFunc("GET /profiles/{id}", profileHandler.GetByID)
	mux.Handle("POST /profiles", authed(http.HandlerFunc(profileHandler.Create)))
	mux.Handle("PUT /profiles/{id}", authed(http.HandlerFunc(profileHandler.Update)))
	mux.Handle("DELETE /profiles/{id}", authed(http.HandlerFunc(profileHandler.Delete)))
	mux.Handle("POST /profiles/{id}/activate", authed(http.HandlerFunc(profileHandler.Activate)))
	mux.Handle("POST /profiles/{id}/deactivate", authed(http.HandlerFunc(profileHandler.Deactivate)))

	mux.HandleFunc("GET /profiles/{id}/reviews", reviewHandler.List)
	mux.Handle("POST /profiles/{id}/reviews", authed(http.HandlerFunc(reviewHandler.Submit)))
	mux.HandleFunc("GET /profiles/{id}/likes", reviewHandler.Likes)
	mux.Handle("POST /profiles/{id}/like", authed(http.HandlerFunc(reviewHandler.Like)))
	mux.Handle("DELETE /profiles/{id}/like", authed(http.HandlerFunc(reviewHandler.Unlike)))

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go sweeper.Start(ctx)
	go func() {
		// Best-effort channel: a dropped connection ends the watcher until
		// the next process start, and the sweep covers the gap.
		if err := pushWatcher.Run(ctx); err != nil {
			slog.Warn("push gateway watcher exited", "error", err)
		}
	}()

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func runMigrations(dir, databaseURL string) error {
	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return fmt.Errorf("runMigrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("runMigrations: %w", err)
	}
	return nil
}

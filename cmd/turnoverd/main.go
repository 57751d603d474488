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
	_ "time/tzdata"

	"github.com/SherClockHolmes/webpush-go"

	"room-turnover-backend/config"
	"room-turnover-backend/internal/api"
	"room-turnover-backend/internal/auth"
	"room-turnover-backend/internal/db"
	"room-turnover-backend/internal/metrics"
	"room-turnover-backend/internal/notification"
	"room-turnover-backend/internal/report"
	"room-turnover-backend/internal/store"
	"room-turnover-backend/internal/turnover"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	logger := log.New(os.Stdout, "turnoverd ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Printf("no configuration at %s, using defaults", configPath)
		cfg = config.Default()
	case err != nil:
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	default:
		logger.Printf("configuration loaded successfully from %s", configPath)
	}

	loc, err := time.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		logger.Fatalf("invalid report timezone %q: %v", cfg.Report.Timezone, err)
	}

	gormDB, err := db.Init(cfg)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	recorder := metrics.NewRecorder()

	var (
		notifier       turnover.Notifier
		webpushOptions *webpush.Options
	)
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, webpushOptions)
		pool.Start(ctx)
		notifier = pool
		logger.Printf("push notifications enabled with %d workers", cfg.WorkerPool.Size)
	} else {
		logger.Println("VAPID keys not configured; push notifications disabled")
	}

	service := turnover.NewService(appStore, recorder, notifier)
	handler := api.NewHandler(api.Deps{
		Store:       appStore,
		Service:     service,
		Gate:        auth.NewGate(appStore, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Reporter:    report.NewReporter(gormDB, loc),
		Webpush:     webpushOptions,
		Location:    loc,
		RecentLimit: cfg.Report.RecentLimit,
		Environment: cfg.Server.Environment,
		Version:     version,
	})

	router := api.NewRouter(handler, cfg.Server, recorder.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}
	cancel()

	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Println("Server gracefully stopped")
}

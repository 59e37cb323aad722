package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/soigrad/soi/internal/catalog"
	"github.com/soigrad/soi/internal/handlers"
	"github.com/soigrad/soi/internal/platform/config"
	"github.com/soigrad/soi/internal/platform/observability"
	"github.com/soigrad/soi/internal/repositories/memory"
	"github.com/soigrad/soi/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cat, err := catalog.Load(cfg.Catalog.File)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}

	destination := strings.TrimSpace(cfg.Dispatch.WhatsAppNumber)
	if destination == "" {
		destination = cat.WhatsAppNumber
	}

	eventLogger := observability.EventLogger(logger.Named("events"))

	sessionRepo := memory.NewSessionRepository()
	assetService := services.NewAssetService(services.AssetServiceDeps{Logger: eventLogger})

	pricingEngine, err := services.NewPricingEngine(cat)
	if err != nil {
		logger.Fatal("failed to initialise pricing engine", zap.Error(err))
	}

	dispatchService, err := services.NewDispatchService(services.DispatchServiceDeps{
		Destination: destination,
		Logger:      eventLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise dispatch service", zap.Error(err))
	}

	formatter := services.NewMessageFormatter()

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Sessions:   sessionRepo,
		Catalog:    cat,
		Pricing:    pricingEngine,
		Formatter:  formatter,
		Dispatch:   dispatchService,
		Assets:     assetService,
		SessionTTL: cfg.Sessions.TTL,
		Logger:     eventLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	purgeCtx, purgeCancel := context.WithCancel(context.Background())
	var purgeWG sync.WaitGroup
	purgeTicker := time.NewTicker(cfg.Sessions.PurgeInterval)
	purgeWG.Add(1)
	go func() {
		defer purgeWG.Done()
		purgeLogger := logger.Named("sessions")
		for {
			select {
			case <-purgeTicker.C:
				runCtx, cancel := context.WithTimeout(purgeCtx, time.Minute)
				removed, err := orderService.PurgeExpired(runCtx)
				cancel()
				if err != nil {
					purgeLogger.Error("session purge error", zap.Error(err))
					continue
				}
				if removed > 0 {
					purgeLogger.Info("session purge removed sessions", zap.Int("count", removed))
				}
			case <-purgeCtx.Done():
				return
			}
		}
	}()

	buildInfo := handlers.BuildInfo{
		Version:     buildValue(cfg.Build.Version, "dev"),
		CommitSHA:   buildValue(cfg.Build.CommitSHA, "unknown"),
		Environment: cfg.Build.Environment,
		StartedAt:   startedAt,
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthCheck("catalog", func(context.Context) error {
			return cat.Validate()
		}),
		handlers.WithHealthCheck("sessionStore", func(context.Context) error {
			_ = sessionRepo.Len()
			return nil
		}),
	)

	catalogHandlers := handlers.NewCatalogHandlers(cat, formatter)
	sessionHandlers := handlers.NewSessionHandlers(orderService, assetService, formatter,
		handlers.WithSessionRateLimit(cfg.RateLimits.PerWindow, cfg.RateLimits.Window),
	)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
		handlers.WithSessionRoutes(sessionHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("soi api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	purgeTicker.Stop()
	purgeCancel()
	purgeWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildValue(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/opsdesk/console-gateway/internal/api/http"
	"github.com/opsdesk/console-gateway/internal/api/http/handlers"
	"github.com/opsdesk/console-gateway/internal/auth"
	"github.com/opsdesk/console-gateway/internal/cache"
	"github.com/opsdesk/console-gateway/internal/config"
	"github.com/opsdesk/console-gateway/internal/domain"
	"github.com/opsdesk/console-gateway/internal/events"
	"github.com/opsdesk/console-gateway/internal/observability"
	"github.com/opsdesk/console-gateway/internal/persistence"
	"github.com/opsdesk/console-gateway/internal/service"
	"github.com/opsdesk/console-gateway/internal/store"
	"github.com/opsdesk/console-gateway/internal/upstream"
	"github.com/opsdesk/console-gateway/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	registry := domain.NewRegistry(cfg.Upstream.ChamadoBaseURL, cfg.Upstream.SarBaseURL)
	entityStore := store.NewEntityStore()
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	overrides := cache.NewOverrideStore(pg.PoolHandle())
	obsCache := cache.NewObservationCache(redis.Client, time.Duration(cfg.Cache.ObservationTTLMinutes)*time.Minute)
	feed := cache.NewNotificationFeed(redis.Client, cfg.Cache.NotificationFeedSize)
	sessions := cache.NewSessionStore(redis.Client)

	upstreamClient := upstream.NewClient(cfg.Upstream.Timeout(), logger)
	itemClient := upstream.NewItemClient(upstreamClient)
	observationClient := upstream.NewObservationClient(upstreamClient)
	authClient := upstream.NewAuthClient(upstreamClient, cfg.Upstream.LoginBaseURL, cfg.Upstream.RegisterBaseURL)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, sessions)

	hydrationService := service.NewHydrationService(service.HydrationDependencies{
		Registry:  registry,
		Items:     itemClient,
		Store:     entityStore,
		Overrides: overrides,
		Logger:    logger,
	})
	claimService := service.NewClaimService(service.ClaimDependencies{
		Registry:   registry,
		Items:      itemClient,
		Store:      entityStore,
		Overrides:  overrides,
		Hydration:  hydrationService,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	statusService := service.NewStatusService(service.StatusDependencies{
		Registry:     registry,
		Items:        itemClient,
		Observations: observationClient,
		Store:        entityStore,
		Overrides:    overrides,
		ObsCache:     obsCache,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	observationService := service.NewObservationService(service.ObservationDependencies{
		Registry:   registry,
		Client:     observationClient,
		Store:      entityStore,
		Cache:      obsCache,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	authService := service.NewAuthService(service.AuthDependencies{
		Client:   authClient,
		Sessions: sessions,
		Tokens:   tokens,
		Config:   cfg.Auth,
		Logger:   logger,
	})
	notificationService := service.NewNotificationService(dispatcher, feed, logger)
	worker.StartNotificationWorker(notificationService)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Sessions:       handlers.NewSessionHandler(authService),
		WorkItems:      handlers.NewWorkItemsHandler(hydrationService, claimService, statusService, entityStore),
		Observations:   handlers.NewObservationsHandler(observationService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

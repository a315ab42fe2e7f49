package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/arcede/tickets/internal/api/http"
	"github.com/arcede/tickets/internal/api/http/handlers"
	"github.com/arcede/tickets/internal/config"
	"github.com/arcede/tickets/internal/events"
	"github.com/arcede/tickets/internal/observability"
	"github.com/arcede/tickets/internal/persistence"
	"github.com/arcede/tickets/internal/provision"
	"github.com/arcede/tickets/internal/reply"
	"github.com/arcede/tickets/internal/repository"
	"github.com/arcede/tickets/internal/ticket"
	"github.com/arcede/tickets/internal/worker"
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

	gateway, err := provision.ConnectNATS(cfg.NATS, logger)
	if err != nil {
		logger.Fatal("failed to connect gateway transport", zap.Error(err))
	}
	defer gateway.Close()

	pool := pg.PoolHandle()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	service := ticket.NewService(cfg.Ticket, ticket.Dependencies{
		SettingsRepo: repository.NewGuildSettingsRepository(pool),
		RoleRepo:     repository.NewSupportRoleRepository(pool),
		TicketRepo:   repository.NewTicketRepository(pool),
		StatsRepo:    repository.NewUserStatsRepository(pool),
		ChatLogRepo:  repository.NewChatLogRepository(pool),
		Provisioner:  gateway,
		Dispatcher:   dispatcher,
		Logger:       logger,
		Metrics:      metrics,
	})

	if err := service.RebuildActiveIndex(ctx); err != nil {
		logger.Fatal("failed to rebuild active ticket index", zap.Error(err))
	}

	responder := buildResponder(cfg.Reply, redis, logger)
	worker.NewReplyWorker(service, responder, gateway, cfg.Reply.ResponseDelay, logger).Register(dispatcher)
	worker.NewNotificationWorker(service, gateway, logger).Register(dispatcher)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, gateway),
		Tickets: handlers.NewTicketsHandler(service),
		Admin:   handlers.NewAdminHandler(service),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func buildResponder(cfg config.ReplyConfig, redis *persistence.Redis, logger *zap.Logger) reply.Responder {
	if cfg.OpenAIAPIKey != "" {
		responder, err := reply.NewOpenAIResponder(cfg, redis.Client, logger)
		if err == nil {
			logger.Info("generative responder enabled", zap.String("model", cfg.Model))
			return responder
		}
		logger.Warn("generative responder unavailable, using keyword table", zap.Error(err))
	}
	return reply.NewKeywordResponder(cfg.MaxLength)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

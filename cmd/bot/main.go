package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-bot/internal/api/http"
	"github.com/spec-kit/ticket-bot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/persistence"
	"github.com/spec-kit/ticket-bot/internal/repository"
	"github.com/spec-kit/ticket-bot/internal/service"
	"github.com/spec-kit/ticket-bot/internal/worker"
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

	discord, err := gateway.NewDiscord(cfg.Discord.Token, logger)
	if err != nil {
		logger.Fatal("failed to create discord session", zap.Error(err))
	}
	if err := discord.Open(); err != nil {
		logger.Fatal("failed to open discord gateway", zap.Error(err))
	}
	defer discord.Close() //nolint:errcheck

	pool := pg.PoolHandle()
	channelRepo := repository.NewChannelRepository(pool)
	fieldRepo := repository.NewFieldRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	channelService := service.NewChannelService(service.ChannelDependencies{
		Store:       pg,
		ChannelRepo: channelRepo,
		TicketRepo:  ticketRepo,
		Gateway:     discord,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	fieldService := service.NewFieldService(service.FieldDependencies{
		Store:       pg,
		ChannelRepo: channelRepo,
		FieldRepo:   fieldRepo,
		Logger:      logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:       pg,
		ChannelRepo: channelRepo,
		TicketRepo:  ticketRepo,
		AnswerRepo:  answerRepo,
		FieldRepo:   fieldRepo,
		Gateway:     discord,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	notificationService := service.NewNotificationService(dispatcher, redis, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	channelsHandler := handlers.NewChannelsHandler(channelService, fieldService)
	ticketsHandler := handlers.NewTicketsHandler(ticketService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   healthHandler,
		Channels: channelsHandler,
		Tickets:  ticketsHandler,
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

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"telegram-drop-bot/internal/application"
	"telegram-drop-bot/internal/config"
	"telegram-drop-bot/internal/domain/ports/adapter"
	"telegram-drop-bot/internal/domain/ports/repository"
	tele "telegram-drop-bot/internal/infra/adapters/telegram"
	pg "telegram-drop-bot/internal/infra/db/postgres"
	httpapi "telegram-drop-bot/internal/infra/http"
	"telegram-drop-bot/internal/infra/logging"
	"telegram-drop-bot/internal/infra/metrics"
	red "telegram-drop-bot/internal/infra/redis"
	"telegram-drop-bot/internal/scheduler"
	"telegram-drop-bot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode (noop gateway, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// ---- Redis (optional: cache and rate limiting degrade to off) ----
	var rateLimiter *red.RateLimiter
	var catalogRepo repository.CatalogRepository = pg.NewPostgresCatalogRepo(pool)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		rateLimiter = red.NewRateLimiter(redisClient)
		catalogRepo = pg.NewCatalogRepoCacheDecorator(catalogRepo, redisClient, cfg.Redis.TTL)
	}
	deliveryRepo := pg.NewPostgresDeliveryRepo(pool)

	// ---- Gateway ----
	var gateway adapter.MediaGateway
	var realBot *tele.RealBotAdapter
	if cfg.Runtime.Dev {
		gateway = tele.NewNoopBotAdapter(logger)
	} else {
		realBot, err = tele.NewRealBotAdapter(&cfg.Bot, rateLimiter, logger)
		if err != nil {
			log.Fatalf("telegram: %v", err)
		}
		gateway = realBot
	}

	// ---- Scheduler + use cases ----
	sched := scheduler.New(deliveryRepo, gateway, logger)
	catalogUC := usecase.NewCatalogUseCase(catalogRepo, gateway, cfg.Bot.ChannelID, cfg.Catalog.DefaultRetentionHours, logger)
	deliveryUC := usecase.NewDeliveryUseCase(catalogRepo, deliveryRepo, gateway, sched, logger)

	// Rehydrate pending deletions before any transport accepts traffic.
	// Records that expired while the process was down fire immediately.
	n, err := sched.Rehydrate(ctx)
	if err != nil {
		log.Fatalf("rehydrate: %v", err)
	}
	logger.Info().Int("pending", n).Msg("scheduler rehydrated")

	// ---- Facade ----
	ident, err := gateway.Identity(ctx)
	if err != nil {
		log.Fatalf("identity: %v", err)
	}
	facade := application.NewBotFacade(catalogUC, deliveryUC, ident.Username)

	// ---- HTTP server ----
	srv := httpapi.NewServer(catalogUC, deliveryRepo, cfg.AdminAPI.Key, logger)

	// ---- Transport ----
	// Webhook mode serves the callback and the admin API on one listener;
	// polling mode only needs the admin API port.
	httpPort := cfg.AdminAPI.Port
	if strings.ToLower(cfg.Bot.Mode) == "webhook" {
		httpPort = cfg.Webhook.Port
	}
	if realBot != nil {
		realBot.SetFacade(facade)
		switch strings.ToLower(cfg.Bot.Mode) {
		case "webhook":
			wh, err := realBot.RegisterWebhook(ctx, cfg.Webhook.BaseURL)
			if err != nil {
				log.Fatalf("webhook: %v", err)
			}
			srv.MountWebhook(realBot.WebhookPath(), wh)
			logger.Info().Str("base_url", cfg.Webhook.BaseURL).Msg("webhook registered")
		default:
			go func() {
				if err := realBot.StartPolling(ctx); err != nil && ctx.Err() == nil {
					logger.Error().Err(err).Msg("polling stopped")
				}
			}()
		}
	}

	go func() {
		if err := srv.Start(httpPort, logger); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
	sched.Stop()
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/nexus-store/storefront/internal/catalog"
	"github.com/nexus-store/storefront/internal/checkout"
	"github.com/nexus-store/storefront/internal/config"
	"github.com/nexus-store/storefront/internal/db"
	"github.com/nexus-store/storefront/internal/events"
	"github.com/nexus-store/storefront/internal/metrics"
	"github.com/nexus-store/storefront/internal/order"
	"github.com/nexus-store/storefront/internal/payment"
	"github.com/nexus-store/storefront/internal/promotion"
	"github.com/nexus-store/storefront/internal/transport"
	"github.com/nexus-store/storefront/internal/ws"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "storefront").Logger()

	log.Info().Msg("Storefront starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

	m := metrics.New()
	hub := ws.NewHub()

	catalogRepo := catalog.NewRepository(pg.Pool)
	promotionSvc := promotion.NewService(promotion.NewRepository(pg.Pool))
	orderSvc := order.NewService(order.NewRepository(pg.Pool), events.NewPublisher(hub, m))
	staging := checkout.NewRedisStaging(redisClient)
	checkoutSvc := checkout.NewService(staging, catalogRepo, promotionSvc, orderSvc)

	gatewayClient := payment.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.KeySecret, cfg.Gateway.Currency)
	paymentSvc := payment.NewService(gatewayClient, payment.NewVerifier(cfg.Gateway.KeySecret), payment.NewRepository(pg.Pool))

	router := transport.NewRouter(transport.Deps{
		Catalog:    catalogRepo,
		Promotions: promotionSvc,
		Orders:     orderSvc,
		Checkout:   checkoutSvc,
		Payments:   paymentSvc,
		Hub:        hub,
		Metrics:    m,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gCtx)
	})

	g.Go(func() error {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

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

	"github.com/gerai/storefront/internal/admin"
	"github.com/gerai/storefront/internal/cart"
	"github.com/gerai/storefront/internal/catalog"
	"github.com/gerai/storefront/internal/config"
	"github.com/gerai/storefront/internal/db"
	"github.com/gerai/storefront/internal/identity"
	"github.com/gerai/storefront/internal/order"
	"github.com/gerai/storefront/internal/payment"
	"github.com/gerai/storefront/internal/pricing"
	"github.com/gerai/storefront/internal/transport"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "storefront").Logger()

	log.Info().Msg("Storefront service starting...")

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	pg, err := db.New(context.Background(), cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer redisClient.Close()

	cartStore := cart.NewRedisStore(redisClient, cfg.Redis.CartTTL)
	cartService := cart.NewService(cartStore)

	catalogClient := catalog.NewHTTPClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout)
	rateClient := pricing.NewHTTPRateClient(cfg.Shipping.BaseURL, cfg.Shipping.Timeout)
	identityResolver := identity.NewHTTPResolver(cfg.Identity.BaseURL, cfg.Identity.Timeout)
	gateway := payment.NewHTTPGateway(cfg.Gateway.BaseURL, cfg.Gateway.ServerKey, cfg.Gateway.Timeout)

	engine := pricing.NewEngine(pricing.Config{
		CODFee:          cfg.Pricing.CODFee,
		OnlineDiscount:  cfg.Pricing.OnlineDiscount,
		FreeShippingMin: cfg.Pricing.FreeShippingMin,
	})

	orderRepo := order.NewRepository(pg.Pool)
	orderService := order.NewService(orderRepo, cartService, catalogClient, rateClient, engine, gateway, cfg.Shipping.OriginCity)
	orchestrator := payment.NewOrchestrator(orderRepo, cartService)
	fulfillment := admin.NewController(orderRepo)

	router := transport.NewRouter(transport.Deps{
		Carts:        cartService,
		Orders:       orderService,
		Orchestrator: orchestrator,
		Fulfillment:  fulfillment,
		Identity:     identityResolver,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

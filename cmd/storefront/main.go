package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mkuzmin-dev/storefront/internal/address"
	"github.com/mkuzmin-dev/storefront/internal/cart"
	"github.com/mkuzmin-dev/storefront/internal/catalog"
	"github.com/mkuzmin-dev/storefront/internal/config"
	"github.com/mkuzmin-dev/storefront/internal/db"
	"github.com/mkuzmin-dev/storefront/internal/httpapi"
	"github.com/mkuzmin-dev/storefront/internal/identity"
	"github.com/mkuzmin-dev/storefront/internal/ledger"
	"github.com/mkuzmin-dev/storefront/internal/order"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "storefront").Logger()

	log.Info().Msg("Storefront starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx := context.Background()
	database, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	if err := database.RunMigrations(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	products := catalog.NewAccessor()
	cartRepo := cart.NewRepository()
	orderRepo := order.NewRepository()
	itemLedger := ledger.New()
	addressStore := address.NewStore()

	identitySvc := identity.NewService(database.Pool)
	cartSvc := cart.NewService(database.Pool, cartRepo, products)
	orderSvc := order.NewService(database, database.Pool, orderRepo, cartRepo, products, itemLedger, addressStore)

	router := httpapi.NewRouter(httpapi.Deps{
		Identity: identitySvc,
		Verifier: identitySvc,
		Cart:     cartSvc,
		Orders:   orderSvc,
		Ledger:   httpapi.NewLedgerHandler(database.Pool, itemLedger),
		Address:  httpapi.NewAddressHandler(database.Pool, addressStore),
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

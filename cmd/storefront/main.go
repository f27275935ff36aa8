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

	"github.com/vasiliy-maslov/ecommerce-storefront/internal/cart"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/catalog"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/checkout"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/config"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/db"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/events"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/handler"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/order"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/payment"
	"github.com/vasiliy-maslov/ecommerce-storefront/internal/session"
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

	dbConn, err := db.New(context.Background(), cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	if err := db.ApplyMigrations(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	sessions := session.NewMemoryStore(cfg.Session.IdleTimeout)
	defer sessions.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to message broker")
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	catalogSvc := catalog.NewService(catalog.NewRepository(dbConn.Pool))
	carts := cart.NewStore(sessions)
	orderSvc := order.NewService(order.NewRepository(dbConn.Pool))
	paymentSvc := payment.NewService(payment.NewRepository(dbConn.Pool))
	checkoutSvc := checkout.NewService(carts, orderSvc, paymentSvc, publisher)

	router := handler.NewRouter(handler.Services{
		Catalog:  catalogSvc,
		Carts:    carts,
		Orders:   orderSvc,
		Payments: paymentSvc,
		Checkout: checkoutSvc,
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/freshcart/internal/auth"
	"github.com/vasiliy-maslov/freshcart/internal/cart"
	"github.com/vasiliy-maslov/freshcart/internal/config"
	"github.com/vasiliy-maslov/freshcart/internal/db"
	handler "github.com/vasiliy-maslov/freshcart/internal/handler/http"
	"github.com/vasiliy-maslov/freshcart/internal/order"
	"github.com/vasiliy-maslov/freshcart/internal/product"
	"github.com/vasiliy-maslov/freshcart/internal/report"
	"github.com/vasiliy-maslov/freshcart/internal/user"
)

func setupLogger(cfg config.LogConfig, service string) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", service).Logger()
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg.Log, cfg.App.Name)

	log.Info().Msg("FreshCart starting...")

	// Prices go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	if err := pg.Migrate(cfg.Postgres.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	reportDB := pg.SQLX()
	defer reportDB.Close()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	userSvc := user.NewService(user.NewRepository(pg.Pool), tokens, user.Options{
		BcryptCost:       cfg.Auth.BcryptCost,
		AllowAdminSignup: cfg.Auth.AllowAdminSignup,
	})
	productSvc := product.NewService(product.NewRepository(pg.Pool))
	orderSvc := order.NewService(order.NewRepository(pg.Pool))
	cartSvc := cart.NewService(cart.NewRepository(pg.Pool))
	reportSvc := report.NewService(report.NewRepository(reportDB), report.Options{
		LowStockThreshold: cfg.Report.LowStockThreshold,
		TopProducts:       cfg.Report.TopProducts,
	})

	router := handler.NewRouter(handler.NewGuard(tokens), handler.Handlers{
		Auth:    handler.NewAuthHandler(userSvc),
		Product: handler.NewProductHandler(productSvc),
		Order:   handler.NewOrderHandler(orderSvc),
		Cart:    handler.NewCartHandler(cartSvc),
		Report:  handler.NewReportHandler(reportSvc),
	}, handler.RouterOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.App.RequestTimeout,
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.App.RequestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("FreshCart stopped gracefully")
}

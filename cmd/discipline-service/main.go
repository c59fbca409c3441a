package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"discipline-service/internal/auth"
	"discipline-service/internal/config"
	"discipline-service/internal/db"
	httphandler "discipline-service/internal/http"
	"discipline-service/internal/http/middleware"
	"discipline-service/internal/ingest"
	"discipline-service/internal/logger"
	"discipline-service/internal/repository"
	"discipline-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close(database)

	location, err := cfg.Card.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid card time zone")
	}

	scopeRepo := repository.NewScopeRepository(database)
	violationRepo := repository.NewViolationRepository(database)

	violationService := service.NewViolationService(scopeRepo, violationRepo)
	cardService, err := service.NewCardService(scopeRepo, violationRepo, service.CardServiceConfig{
		Location:  location,
		CacheSize: cfg.Card.CacheSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create card service")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Kafka.Enabled {
		consumer := ingest.NewConsumer(cfg.Kafka, violationService, log)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka ingest enabled")
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Error().Err(err).Msg("kafka ingest stopped")
			}
		}()
	}

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(violationService, cardService, log)
	router := httphandler.NewRouter(handler, middleware.Auth(tokenParser), cfg.Environment, healthCheck(database))

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	log.Info().Str("addr", addr).Str("time_zone", location.String()).Msg("starting discipline service")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func healthCheck(database *gorm.DB) httphandler.HealthFunc {
	return func(ctx context.Context) error {
		return db.HealthCheck(ctx, database)
	}
}

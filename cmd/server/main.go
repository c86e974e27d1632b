// Package main is the entry point for the risk analytics service.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aristath/sentinel-risk/internal/config"
	"github.com/aristath/sentinel-risk/internal/engine"
	"github.com/aristath/sentinel-risk/internal/observability"
	"github.com/aristath/sentinel-risk/internal/server"
	"github.com/aristath/sentinel-risk/pkg/logger"
)

// main loads configuration, wires the engine and its observers into the HTTP
// server and blocks until SIGINT or SIGTERM, then shuts down gracefully.
func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Pretty:  cfg.Log.Pretty,
		Service: "sentinel-risk",
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting risk service")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	promObserver, err := observability.NewPrometheusObserver(registry)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register engine metrics")
	}

	opts := cfg.EngineOptions()
	opts.Observer = observability.NewMulti(observability.NewLogObserver(log), promObserver)

	eng, err := engine.New(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create risk engine")
	}
	log.Info().
		Int("workers", eng.Workers()).
		Float64("confidence", eng.Confidence()).
		Int("stress_scenarios", len(eng.Scenarios())).
		Str("policy", cfg.Engine.Policy).
		Msg("Risk engine initialized")

	srv, err := server.New(server.Config{
		Log:         log,
		Engine:      eng,
		Registry:    registry,
		CORSOrigins: cfg.Server.CORSOrigins,
		Port:        cfg.Server.Port,
		DevMode:     cfg.Server.DevMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	// In-flight analyses get the configured grace period before connections are cut.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alkime/lecturequiz/internal/config"
	"github.com/alkime/lecturequiz/internal/logger"
	"github.com/alkime/lecturequiz/internal/processing"
	"github.com/alkime/lecturequiz/internal/server"
	"github.com/alkime/lecturequiz/internal/simulate"
	"github.com/alkime/lecturequiz/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	appLogger := logger.SetupLogger(cfg)

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("Server stopped", "error", err)
		os.Exit(1)
	}

	appLogger.Info("Server stopped")
}

func run(cfg *config.Config, appLogger *slog.Logger) error {
	// Log startup information
	appLogger.Info("Starting lecturequiz server",
		"env", cfg.Env,
		"port", cfg.Port,
		"tick_interval", cfg.TickInterval,
		"transition_delay", cfg.TransitionDelay,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := telemetry.NewRecorder(ctx, telemetry.Config{
		Enabled:  cfg.OTELEnabled,
		Endpoint: cfg.OTELEndpoint,
		Insecure: cfg.OTELInsecure,
	})

	svc := processing.NewService(simulate.Config{
		TickInterval:    cfg.TickInterval,
		TransitionDelay: cfg.TransitionDelay,
	}, metrics, processing.WithRetention(cfg.RunRetention))

	srv := server.New(cfg, appLogger, svc)
	runErr := srv.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := svc.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("processing shutdown: %w", err))
	}

	return runErr
}

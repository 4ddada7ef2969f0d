package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/labmat/internal/infrastructure/config"
	"github.com/GriffinCanCode/labmat/internal/infrastructure/logging"
	"github.com/GriffinCanCode/labmat/internal/infrastructure/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags override the environment.
	flag.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "Server port")
	flag.StringVar(&cfg.Executor.URL, "executor", cfg.Executor.URL, "Execution service URL")
	flag.StringVar(&cfg.Content.Dir, "content", cfg.Content.Dir, "Catalog directory (empty for the built-in catalog)")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging")
	flag.Parse()
	cfg.Logging.Development = *dev

	logger, err := logging.New(logging.FromConfig(cfg.Logging))
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Error("Failed to create server", zap.Error(err))
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server error", zap.Error(err))
		return err
	}
	logger.Info("Server stopped")
	return nil
}

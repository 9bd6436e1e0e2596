// Package main is the entry point for the Alexander Files background worker.
// It consumes the shared Redis queue and generates thumbnails for new images.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/prn-tf/alexander-files/internal/app"
	"github.com/prn-tf/alexander-files/internal/config"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatal().Err(err).Msg("worker stopped with error")
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Queue.Backend != "redis" {
		return fmt.Errorf("standalone worker requires queue.backend 'redis', got %q", cfg.Queue.Backend)
	}

	logger := app.SetupLogger(cfg.Logging)
	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Starting Alexander Files Worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.RunWorker(ctx); err != nil {
		return err
	}

	logger.Info().Msg("worker stopped")
	return nil
}

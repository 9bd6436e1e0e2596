// Package repository provides data access layer for Alexander Files.
// This file contains the factory that picks a repository set based on configuration.
package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/config"
)

// Opener opens a database and builds the repositories on top of it.
type Opener func(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*CreateRepositoriesResult, error)

// CreateRepositoriesResult contains the created repositories and database connection.
type CreateRepositoriesResult struct {
	Repos    *Repositories
	Database DatabaseHealth
}

// Factory creates repositories based on configuration.
// Drivers register an Opener so this package stays free of driver imports.
type Factory struct {
	cfg     config.DatabaseConfig
	logger  zerolog.Logger
	openers map[string]Opener
}

// NewFactory creates a new repository factory.
func NewFactory(cfg config.DatabaseConfig, logger zerolog.Logger) *Factory {
	return &Factory{
		cfg:     cfg,
		logger:  logger,
		openers: make(map[string]Opener),
	}
}

// Register associates an Opener with a driver name.
func (f *Factory) Register(driver string, open Opener) *Factory {
	f.openers[driver] = open
	return f
}

// Create opens the configured database and returns its repositories.
func (f *Factory) Create(ctx context.Context) (*CreateRepositoriesResult, error) {
	open, ok := f.openers[f.cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("no repository opener registered for driver %q", f.cfg.Driver)
	}
	return open(ctx, f.cfg, f.logger)
}

// Package main is the entry point for the Alexander Files database migration tool.
// PostgreSQL schemas are managed with goose; SQLite databases migrate themselves on open.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/prn-tf/alexander-files/internal/app"
	"github.com/prn-tf/alexander-files/internal/config"
	"github.com/prn-tf/alexander-files/internal/repository/postgres"
	"github.com/prn-tf/alexander-files/internal/repository/sqlite"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// gooseCommands are the goose commands that work against embedded migrations.
var gooseCommands = map[string]bool{
	"up":        true,
	"up-by-one": true,
	"up-to":     true,
	"down":      true,
	"down-to":   true,
	"redo":      true,
	"reset":     true,
	"status":    true,
	"version":   true,
}

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	switch command {
	case "help", "-h", "--help":
		printUsage()
		return
	case "tool-version":
		fmt.Printf("Alexander Files Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		return
	}

	if !gooseCommands[command] {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err := run(*configPath, command, flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", command, err)
		os.Exit(1)
	}
}

func run(configPath, command string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := app.SetupLogger(cfg.Logging)
	ctx := context.Background()

	if cfg.Database.IsEmbedded() {
		if command != "up" {
			return fmt.Errorf("sqlite databases only support 'up'")
		}
		db, err := sqlite.NewDB(ctx, sqlite.ConfigFromDatabase(cfg.Database), logger)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Migrate(ctx)
	}

	db, err := postgres.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	goose.SetBaseFS(postgres.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	return goose.RunContext(ctx, command, sqlDB, postgres.MigrationsDir, args...)
}

func printUsage() {
	fmt.Println(`Alexander Files Migration Tool

Usage:
  alexander-migrate [-config path] <command> [arguments]

Commands:
  up             Run all pending migrations
  up-by-one      Apply the next pending migration
  up-to VERSION  Migrate up to a specific version
  down           Roll back the last migration
  down-to VERSION
                 Roll back to a specific version
  redo           Roll back and reapply the last migration
  reset          Roll back all migrations
  status         Show migration status
  version        Print the current schema version
  tool-version   Print build information
  help           Show this help message

SQLite databases support only 'up'; they also migrate on server start.

Configuration is read from the file given by -config, or from
ALEXANDER_* environment variables (e.g. ALEXANDER_DATABASE_DRIVER).`)
}

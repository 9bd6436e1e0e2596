// Package main is the entry point for the Alexander Files admin CLI.
// This tool provides administrative commands for managing users and inspecting the system.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/prn-tf/alexander-files/internal/app"
	"github.com/prn-tf/alexander-files/internal/config"
	"github.com/prn-tf/alexander-files/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	var err error
	switch command {
	case "version":
		fmt.Printf("Alexander Files Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		err = runUser(os.Args[2:])

	case "stats":
		err = runStats(os.Args[2:])

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withApp loads configuration, builds the application and runs fn against it.
func withApp(configPath string, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, app.SetupLogger(config.LoggingConfig{Level: "warn", Format: "console"}))
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func runUser(args []string) error {
	if len(args) < 1 || args[0] != "create" {
		return fmt.Errorf("usage: alexander-admin user create --email EMAIL --password PASSWORD")
	}

	fs := flag.NewFlagSet("user create", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the configuration file")
	email := fs.String("email", "", "email of the new user")
	password := fs.String("password", "", "password of the new user")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	return withApp(*configPath, func(ctx context.Context, a *app.App) error {
		user, err := a.Users.Register(ctx, service.RegisterInput{Email: *email, Password: *password})
		if err != nil {
			return err
		}
		fmt.Printf("Created user %s (%s)\n", user.ID, user.Email)
		return nil
	})
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withApp(*configPath, func(ctx context.Context, a *app.App) error {
		stats, err := a.Users.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Users: %d\nFiles: %d\n", stats.Users, stats.Files)
		return nil
	})
}

func printUsage() {
	fmt.Println(`Alexander Files Admin CLI

Usage:
  alexander-admin <command> [arguments]

Commands:
  user create   Register a user (--email, --password)
  stats         Print user and file counts
  version       Print version information
  help          Show this help message

Every command that touches data accepts --config PATH.

Examples:
  alexander-admin user create --email admin@example.com --password s3cret
  alexander-admin stats --config /etc/alexander/config.yaml`)
}

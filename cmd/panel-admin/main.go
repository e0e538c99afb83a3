package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/config"
	"github.com/edvin/hostpanel/internal/core"
	"github.com/edvin/hostpanel/internal/db"
	"github.com/edvin/hostpanel/internal/logging"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/seed"
	"github.com/edvin/hostpanel/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	_ = godotenv.Load()

	switch os.Args[1] {
	case "create-admin":
		fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
		username := fs.String("username", "admin", "Admin username")
		email := fs.String("email", "", "Admin email (required)")
		password := fs.String("password", "", "Admin password (default: $"+seed.AdminPasswordEnv+")")
		fs.Parse(os.Args[2:])

		if *email == "" {
			fmt.Fprintln(os.Stderr, "Error: -email is required")
			fs.Usage()
			os.Exit(1)
		}

		withServices(func(ctx context.Context, svc *core.Services) error {
			created, err := seed.CreateAdmin(ctx, svc, seed.AdminDef{Username: *username, Email: *email, Password: *password})
			if err != nil {
				return err
			}
			if !created {
				fmt.Printf("An account with username %q or email %q already exists.\n", *username, *email)
				return nil
			}
			fmt.Printf("Admin %q created.\n", *email)
			return nil
		})

	case "seed":
		fs := flag.NewFlagSet("seed", flag.ExitOnError)
		file := fs.String("f", "", "Path to seed definition YAML file (required)")
		fs.Parse(os.Args[2:])

		if *file == "" {
			fmt.Fprintln(os.Stderr, "Error: -f flag is required")
			fs.Usage()
			os.Exit(1)
		}
		cfg, err := seed.Load(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		withServices(func(ctx context.Context, svc *core.Services) error {
			res, err := seed.Apply(ctx, svc, cfg, os.Stdout)
			if err != nil {
				return err
			}
			fmt.Printf("\nSeed complete: %d created, %d skipped.\n", res.Created, res.Skipped)
			return nil
		})

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// withServices opens the configured store and runs fn against it. Errors
// exit the process.
func withServices(fn func(ctx context.Context, svc *core.Services) error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid config: %v\n", err)
		os.Exit(1)
	}
	if cfg.StoreBackend != config.BackendPostgres {
		fmt.Fprintln(os.Stderr, "Error: panel-admin needs DATABASE_URL; the memory store would discard every change")
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg).Level(zerolog.WarnLevel)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	backend, err := db.OpenStore(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	clock := platform.SystemClock{}
	svc := core.NewServices(core.Deps{
		Store:            backend.Store,
		Sessions:         session.NewMemory(clock, cfg.SessionTTL),
		Clock:            clock,
		Logger:           logger,
		DefaultPackageID: cfg.DefaultPackageID,
	})

	if err := fn(ctx, svc); err != nil {
		backend.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: panel-admin <command> [flags]

Commands:
  create-admin  Create an administrator account
                  -email <email> [-username admin] [-password <pw>]
  seed          Create hosting packages, help articles and an admin from YAML
                  -f <seed.yaml>`)
}

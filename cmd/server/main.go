// Package main is the entry point for the recipe API.
//
// The binary has three commands:
//
//	recipe-api [serve]                                   run the HTTP server (default)
//	recipe-api create-user --email E --password P [--name N]
//	recipe-api delete-user --email E                     also removes the user's recipes
//
// Configuration comes from the environment (see internal/config); flags only
// carry per-invocation values.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcwaters/recipe-app-api/internal/auth"
	"github.com/samcwaters/recipe-app-api/internal/config"
	sqliteRepo "github.com/samcwaters/recipe-app-api/internal/repository/sqlite"
	"github.com/samcwaters/recipe-app-api/internal/server"
	"github.com/samcwaters/recipe-app-api/internal/service"
)

// overridden during build with ldflags
var version = "dev"

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "recipe-api",
		Usage:   "Recipe API server and account administration",
		Version: version,
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: serve,
			},
			{
				Name:  "create-user",
				Usage: "Register a user and print an API token for it",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "login email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "plaintext password (hashed before storing)", Required: true},
					&cli.StringFlag{Name: "name", Usage: "display name"},
				},
				Action: createUser,
			},
			{
				Name:  "delete-user",
				Usage: "Delete a user and every recipe they own",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "login email", Required: true},
				},
				Action: deleteUser,
			},
		},
	}
}

func serve(ctx context.Context, _ *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stdout, cfg)

	if err := ensureDBDir(cfg.DBPath); err != nil {
		return err
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start blocks until SIGINT/SIGTERM
	return srv.Start(ctx)
}

func createUser(ctx context.Context, cmd *cli.Command) error {
	return withUserService(ctx, func(users *service.UserService) error {
		email := cmd.String("email")
		password := cmd.String("password")

		user, err := users.Register(ctx, email, password, cmd.String("name"))
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		token, err := users.Authenticate(ctx, email, password)
		if err != nil {
			return fmt.Errorf("issuing token: %w", err)
		}

		fmt.Fprintf(cmd.Root().Writer, "created user %d (%s)\ntoken: %s\n", user.ID, user.Email, token)
		return nil
	})
}

func deleteUser(ctx context.Context, cmd *cli.Command) error {
	return withUserService(ctx, func(users *service.UserService) error {
		email := cmd.String("email")
		if err := users.DeleteByEmail(ctx, email); err != nil {
			return fmt.Errorf("deleting user %s: %w", email, err)
		}
		fmt.Fprintf(cmd.Root().Writer, "deleted user %s\n", email)
		return nil
	})
}

// withUserService opens the configured database just long enough to run fn.
func withUserService(ctx context.Context, fn func(*service.UserService) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg)

	if err := ensureDBDir(cfg.DBPath); err != nil {
		return err
	}
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	users := service.NewUserService(db.Users(), tokens, auth.NewPasswordService(cfg.BcryptCost), logger)

	return fn(users)
}

// newLogger builds the process logger: text for humans, JSON for log
// shippers, at the configured level. Outside production, debug logs also
// carry the source location.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug && !cfg.IsProduction(),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(h).With(slog.String("env", cfg.AppEnv))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensureDBDir creates the database's parent directory (like `mkdir -p`).
// In-memory databases have nothing to create.
func ensureDBDir(dbPath string) error {
	if dbPath == ":memory:" || strings.HasPrefix(dbPath, "file:") {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}

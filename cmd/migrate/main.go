// Command migrate applies goose migrations against the configured
// database. Usage: migrate <up|down|status|version>
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/BradenHooton/taskpilot/internal/config"
)

const migrationsDir = "migrations"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate <up|down|status|version>")
		os.Exit(1)
	}
	command := os.Args[1]

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		logger.Error("failed to set dialect", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := run(ctx, command, db); err != nil {
		logger.Error("migration command failed", "command", command, "error", err)
		os.Exit(1)
	}
	logger.Info("migration command completed", "command", command)
}

func run(ctx context.Context, command string, db *sql.DB) error {
	switch command {
	case "up":
		return goose.UpContext(ctx, db, migrationsDir)
	case "down":
		return goose.DownContext(ctx, db, migrationsDir)
	case "status":
		return goose.StatusContext(ctx, db, migrationsDir)
	case "version":
		return goose.VersionContext(ctx, db, migrationsDir)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

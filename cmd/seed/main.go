// Command seed loads development staff and attendance, including one
// duplicated work date, into the configured database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/cmlabs-hris/attendance-backend-go/internal/fixtures"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Seed failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{MaxConns: 2, MinConns: 1})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	created, err := fixtures.Seed(ctx, db, postgresql.NewAttendanceRepository(db), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("seed after %d attendances: %w", created, err)
	}
	slog.Info("Seed complete", "attendances", created)
	return nil
}

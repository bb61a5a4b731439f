package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lib/pq"

	"lst-explorer/internal/config"
	"lst-explorer/pkg/database"
	"lst-explorer/pkg/logging"
	"lst-explorer/pkg/metrics"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	dir := flag.String("dir", "migrations", "Directory holding the migration files")
	flag.Parse()

	if *direction != "up" && *direction != "down" {
		fmt.Fprintf(os.Stderr, "Invalid direction %q, expected up or down\n", *direction)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("lst-migrate", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	ctx := context.Background()

	db, err := database.NewPostgresDB(cfg.Database.Postgres(), logger, metrics.NewCollector("lst_migrate"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	migrationFile := filepath.Join(*dir, fmt.Sprintf("001_create_schema.%s.sql", *direction))
	content, err := os.ReadFile(migrationFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read migration file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Running migration: %s\n", migrationFile)

	if _, err := db.ExecContext(ctx, "migration", string(content)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			fmt.Fprintf(os.Stderr, "Migration failed: %s (SQLSTATE %s)\n", pqErr.Message, pqErr.Code)
		} else {
			fmt.Fprintf(os.Stderr, "Failed to execute migration: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Println("Migration completed successfully")
}

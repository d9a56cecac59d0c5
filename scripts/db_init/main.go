// Command db_init creates the fake server's database file and applies the
// migrations to it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	dbfs "github.com/talosdigital/tdjobs/db"
	"github.com/talosdigital/tdjobs/internal/config"
	"github.com/talosdigital/tdjobs/internal/db"
)

var errNoFile = errors.New("database_path must name a file")

func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := initDB(context.Background(), cfg.DatabasePath); err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Database %s initialized.\n", cfg.DatabasePath)
}

// initDB opens (creating if needed) the database file at path and applies
// every pending migration.
func initDB(ctx context.Context, path string) error {
	if path == "" || path == ":memory:" {
		return errNoFile
	}

	database, err := db.New(ctx, path, nil)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

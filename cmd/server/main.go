package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/talosdigital/tdjobs/api"
	dbfs "github.com/talosdigital/tdjobs/db"
	"github.com/talosdigital/tdjobs/internal/config"
	"github.com/talosdigital/tdjobs/internal/db"
	"github.com/talosdigital/tdjobs/internal/repository/sqlite"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	level, _ := cfg.Level()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	api.SetLogger(logger)

	logger.Info("starting TDJobs sandbox server", slog.String("version", version), slog.String("build_time", buildTime))
	if cfg.Client.ApplicationSecret == "" {
		logger.Warn("no application secret configured; requests are not authenticated")
	}

	ctx := context.Background()

	dbCtx, dbCancel := context.WithTimeout(ctx, cfg.APITimeout)
	conn, err := db.New(dbCtx, cfg.DatabasePath, logger)
	if err != nil {
		dbCancel()
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Migrate(dbCtx, conn, dbfs.Migrations); err != nil {
		dbCancel()
		log.Fatalf("Failed to migrate DB: %v", err)
	}
	dbCancel()

	srv, err := api.NewServer(sqlite.New(conn, logger))
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}
	handler := api.CORSMiddleware(api.SetupRoutes(srv, cfg.Client.ApplicationSecret, version, buildTime))

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := conn.Close(); err != nil {
		logger.Error("closing DB", slog.Any("err", err))
	}

	logger.Info("server exited")
}

// WAS Core - control plane for always-connected voice satellites.
//
// This is the main entry point. It owns process lifecycle: configuration,
// logging, storage, the wake/notify/endpoint domain components, and the
// HTTP server that fronts them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/wakeward/was-core/migrations"

	"github.com/wakeward/was-core/internal/api"
	"github.com/wakeward/was-core/internal/configstore"
	"github.com/wakeward/was-core/internal/connection"
	"github.com/wakeward/was-core/internal/endpoint"
	"github.com/wakeward/was-core/internal/infrastructure/config"
	"github.com/wakeward/was-core/internal/infrastructure/database"
	"github.com/wakeward/was-core/internal/infrastructure/logging"
	"github.com/wakeward/was-core/internal/infrastructure/tsdb"
	"github.com/wakeward/was-core/internal/notify"
	"github.com/wakeward/was-core/internal/wake"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting WAS Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database and apply migrations
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	store := configstore.New(db)

	// Telemetry (optional)
	var telemetry *tsdb.Client
	if cfg.Telemetry.Enabled {
		telemetry, err = tsdb.Connect(cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("connecting to telemetry: %w", err)
		}
		defer func() {
			log.Info("closing telemetry connection")
			telemetry.Close()
		}()
		telemetry.SetOnError(func(err error) {
			log.Error("telemetry write error", "error", err)
		})
		log.Info("telemetry connected", "url", cfg.Telemetry.URL, "bucket", cfg.Telemetry.Bucket)
	} else {
		log.Info("telemetry disabled")
	}

	// Domain components
	registry := connection.NewRegistry()
	registry.SetLogger(log)

	queue := notify.NewQueue(registry)
	queue.SetLogger(log)
	registry.SetOnDisconnect(queue.Purge)

	arbiter := wake.NewArbiter(cfg.GetWakeGracePeriod())
	arbiter.SetLogger(log)
	defer arbiter.Close()

	router := endpoint.NewRouter(cfg.GetEndpointStopTimeout())
	router.SetLogger(log)
	defer router.Close()

	// Activate the command endpoint from the stored user configuration.
	// A server that has never been configured, or whose backend is down,
	// still starts; devices get the not-active speech until it is fixed.
	if err := bootstrapEndpoint(ctx, store, router, cfg, log); err != nil {
		log.Warn("command endpoint not activated", "error", err)
	}

	// HTTP server (device WebSocket + admin API)
	server, err := api.New(api.Deps{
		Config:   cfg,
		Logger:   log,
		Registry: registry,
		Arbiter:  arbiter,
		Queue:    queue,
		Router:   router,
		Store:    store,
		Tsdb:     telemetry,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// bootstrapEndpoint builds and installs the adapter selected by the
// stored user configuration.
func bootstrapEndpoint(ctx context.Context, store *configstore.Store, router *endpoint.Router, cfg *config.Config, log *logging.Logger) error {
	userCfg, err := store.Get(ctx)
	if err != nil {
		if errors.Is(err, configstore.ErrNotConfigured) {
			log.Info("no user configuration stored, command endpoint inactive")
			return nil
		}
		return fmt.Errorf("loading user config: %w", err)
	}

	adapter, err := endpoint.NewAdapter(userCfg, cfg.GetEndpointRequestTimeout(), log)
	if err != nil {
		return err
	}
	router.SetAdapter(adapter)
	return nil
}

// getConfigPath returns the configuration file path.
// Uses WASCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("WASCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// Nexhome Core - fan integration for Nexhome smart home gateways.
//
// This is the main entry point. It connects to the gateway's MQTT broker,
// discovers devices, sets up one fan entity per supported fan device and
// serves their state and services over HTTP.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/nerrad567/nexhome-core/internal/api"
	"github.com/nerrad567/nexhome-core/internal/coordinator"
	"github.com/nerrad567/nexhome-core/internal/device"
	"github.com/nerrad567/nexhome-core/internal/entity"
	"github.com/nerrad567/nexhome-core/internal/fan"
	"github.com/nerrad567/nexhome-core/internal/gateway"
	"github.com/nerrad567/nexhome-core/internal/infrastructure/config"
	"github.com/nerrad567/nexhome-core/internal/infrastructure/database"
	"github.com/nerrad567/nexhome-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/nexhome-core/internal/infrastructure/logging"
	"github.com/nerrad567/nexhome-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/nexhome-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
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
// It returns nil on clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Nexhome Core",
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

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(cfg.Database)
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

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	registry := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	registry.SetLogger(log.Component("device"))
	history := device.NewSQLiteStateHistoryRepository(db.DB)

	mqttClient, err := mqtt.Connect(cfg.Gateway)
	if err != nil {
		return fmt.Errorf("connecting to gateway broker: %w", err)
	}
	defer func() {
		log.Info("disconnecting from gateway broker")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("gateway broker connected",
		"broker", net.JoinHostPort(cfg.Gateway.Host, strconv.Itoa(cfg.Gateway.Port)),
		"serial", cfg.Gateway.Serial,
	)

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	gw := gateway.New(mqttClient, cfg.Gateway, cfg.GetRequestTimeout())
	gw.SetLogger(log.Component("gateway"))
	if startErr := gw.Start(); startErr != nil {
		return fmt.Errorf("starting gateway client: %w", startErr)
	}
	defer func() {
		log.Info("stopping gateway client")
		gw.Stop()
	}()

	recorders := []coordinator.Recorder{
		coordinator.NewHistoryRecorder(history, log.Component("history")),
	}
	var commands commandWriter
	if influxClient != nil {
		recorders = append(recorders, coordinator.NewTelemetryRecorder(influxClient))
		commands = influxClient
	}
	gw.OnCommand(commandRecorder(ctx, history, commands, log))

	host := entity.NewHost()
	host.SetLogger(log.Component("entity"))

	checks := map[string]api.HealthChecker{
		"database": db,
		"mqtt":     mqttClient,
	}
	if influxClient != nil {
		checks["influxdb"] = influxClient
	}

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log.Component("api"),
		Host:     host,
		Registry: registry,
		History:  history,
		Checks:   checks,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	entry := entity.NewConfigEntry(cfg.Gateway.Serial, "Nexhome "+cfg.Gateway.Serial, cfg.Gateway.Host, cfg.Gateway.Serial)
	setupFn := func(ctx context.Context, e *entity.ConfigEntry) error {
		devices, discoverErr := discoverDevices(ctx, gw, registry, log)
		if discoverErr != nil {
			return discoverErr
		}
		_, setupErr := fan.Setup(ctx, fan.SetupParams{
			Entry:        e,
			Host:         host,
			Gateway:      gw,
			Devices:      devices,
			Catalog:      device.DefaultCatalog(),
			PollInterval: cfg.GetPollInterval(),
			Recorders:    recorders,
			Logger:       log.Component("fan"),
		})
		return setupErr
	}

	setupDone := make(chan struct{})
	go func() {
		defer close(setupDone)
		// Failures are logged by setupWithRetry; the entry state records them.
		_ = setupWithRetry(ctx, entry, setupFn, setupRetryInterval, log)
	}()

	go runHistoryPruner(ctx, history, cfg.GetHistoryRetention(), historyPruneInterval, log)

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	<-setupDone
	if entry.State() == entity.EntryStateLoaded {
		if unloadErr := entry.Unload(); unloadErr != nil {
			log.Error("error unloading entry", "error", unloadErr)
		}
	}

	// Deferred calls run in reverse: API server, gateway client,
	// InfluxDB (if enabled), MQTT, database.

	log.Info("Nexhome Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses NEXHOME_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("NEXHOME_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

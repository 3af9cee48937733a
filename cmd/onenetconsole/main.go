// OneNET Console - device management console for the OneNET IoT platform.
//
// The console serves a browser UI and proxies its requests to both OneNET
// API generations: the legacy key-based API (v1) and the token-based API
// (v2). It keeps a persistent cache of the device list and can mirror
// cache changes and fetched datapoints onto MQTT and InfluxDB.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/onenet-console/internal/api"
	"github.com/nerrad567/onenet-console/internal/audit"
	"github.com/nerrad567/onenet-console/internal/auth"
	"github.com/nerrad567/onenet-console/internal/device"
	"github.com/nerrad567/onenet-console/internal/infrastructure/config"
	"github.com/nerrad567/onenet-console/internal/infrastructure/database"
	"github.com/nerrad567/onenet-console/internal/infrastructure/influxdb"
	"github.com/nerrad567/onenet-console/internal/infrastructure/logging"
	"github.com/nerrad567/onenet-console/internal/infrastructure/mqtt"
	"github.com/nerrad567/onenet-console/internal/onenet"
	"github.com/nerrad567/onenet-console/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configEnvVar      = "ONENETCONSOLE_CONFIG"

	// tokenRefreshBefore renews a cached v2 token this long before expiry.
	tokenRefreshBefore = 5 * time.Minute
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application body, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting OneNET console",
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

	// Device cache, persisted in SQLite unless the memory backend is chosen.
	var db *database.DB
	var store device.Store
	switch cfg.Cache.Backend {
	case "memory":
		store = device.NewMemoryStore()
		log.Info("device cache is in-memory only")
	default:
		db, err = openDatabase(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		store = device.NewSQLiteStore(db.DB)
	}

	cache := device.NewCache(store, cfg.Cache.Slot)
	cache.SetLogger(log)
	devices, err := cache.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading device cache: %w", err)
	}
	log.Info("device cache loaded", "devices", len(devices))

	client := onenet.NewClient(onenet.ClientConfig{
		V1BaseURL: cfg.OneNET.V1.BaseURL,
		V2BaseURL: cfg.OneNET.V2.BaseURL,
		Timeout:   cfg.GetOneNETTimeout(),
	})
	client.SetLogger(log)

	minter, err := newMinter(cfg)
	if err != nil {
		return err
	}

	var sessions *auth.Sessions
	if cfg.Security.ConsoleAuth.Enabled {
		sessions = auth.NewSessions(
			cfg.Console.ID,
			cfg.Security.ConsoleAuth.PasswordHash,
			cfg.Security.JWT.Secret,
			cfg.GetSessionTTL(),
		)
		log.Info("console auth enabled", "session_ttl", sessions.TTL())
	}

	deps := api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		OneNET:   cfg.OneNET,
		Console:  cfg.Console,
		Logger:   log,
		Cache:    cache,
		OneNet:   client,
		Minter:   minter,
		DB:       db,
		Sessions: sessions,
		Version:  version,
	}

	if db != nil {
		deps.Activity = audit.NewSQLiteLog(db.DB)
	}

	// Only non-nil clients are assigned: a nil *mqtt.Client stored in the
	// interface field would not compare equal to nil.
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		mqttClient.SetLogger(log)
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
			"prefix", mqttClient.Topics().Prefix,
		)
		deps.Events = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		deps.Mirror = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		"v1_base", cfg.OneNET.V1.BaseURL,
		"v2_base", cfg.OneNET.V2.BaseURL,
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("OneNET console stopped")
	return nil
}

func getConfigPath() string {
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	return defaultConfigPath
}

// openDatabase opens SQLite and applies the embedded migrations.
func openDatabase(ctx context.Context, cfg *config.Config, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	log.Info("database connected", "path", cfg.Database.Path)

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete")
	return db, nil
}

// newMinter builds the v2 token minter: an external service when one is
// configured, otherwise in-process signing. Either way tokens are reused
// until shortly before they expire.
func newMinter(cfg *config.Config) (onenet.TokenMinter, error) {
	var inner onenet.TokenMinter
	if url := cfg.OneNET.TokenMinter.URL; url != "" {
		inner = onenet.NewHTTPTokenMinter(url, &http.Client{Timeout: cfg.GetOneNETTimeout()})
	} else {
		method, err := onenet.ParseSignMethod(cfg.OneNET.V2.SignMethod)
		if err != nil {
			return nil, fmt.Errorf("configuring token minter: %w", err)
		}
		inner = onenet.NewLocalTokenMinter(method, cfg.GetTokenTTL())
	}
	return onenet.NewCachingMinter(inner, tokenRefreshBefore), nil
}

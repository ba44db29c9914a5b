// obsosc bridges OSC show control and OBS Studio.
//
// Inbound OSC messages (from QLab, TouchOSC, a lighting desk...) are routed
// to obs-websocket requests. OBS scene changes whose names carry a cue
// token such as "[Q12]" fire "/cue/Q12/start" back out over OSC.
//
// Optional integrations, each off unless enabled in config.yaml:
//   - MQTT: bridge health, scene/cue mirror and command ingress
//   - InfluxDB: command and cue telemetry
//   - SQLite journal: audit trail of commands and cues
//   - HTTP: Prometheus metrics, /healthz, stats and journal queries
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/obs-osc-bridge/migrations"

	"github.com/nerrad567/obs-osc-bridge/internal/api"
	"github.com/nerrad567/obs-osc-bridge/internal/bridge"
	"github.com/nerrad567/obs-osc-bridge/internal/infrastructure/config"
	"github.com/nerrad567/obs-osc-bridge/internal/infrastructure/database"
	"github.com/nerrad567/obs-osc-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/obs-osc-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/obs-osc-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/obs-osc-bridge/internal/journal"
	"github.com/nerrad567/obs-osc-bridge/internal/metrics"
	"github.com/nerrad567/obs-osc-bridge/internal/obsws"
	"github.com/nerrad567/obs-osc-bridge/internal/osc"
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

// errOBSLost is the cause recorded when the OBS connection drops. The
// bridge does not reconnect; a supervisor restarts the process.
var errOBSLost = errors.New("OBS connection lost")

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(parent context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence of optional integrations
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting obsosc",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	var recorders []bridge.Recorder
	checks := make(map[string]api.HealthCheck)

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		recorders = append(recorders, collector)
	}

	// Journal
	var journalRepo journal.Repository
	if cfg.Database.Enabled {
		db, err := database.Open(ctx, database.Config{
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

		schema, err := db.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		log.Info("journal database ready",
			"path", cfg.Database.Path,
			"schema_version", schema.Version,
			"migrations_applied", len(schema.Applied),
		)

		repo := journal.NewSQLiteRepository(db.DB)
		journalRepo = repo
		journalRecorder := journal.NewRecorder(repo, 0, log.Component("journal"))
		// Deferred after db.Close, so it runs first and flushes queued entries.
		defer journalRecorder.Close()

		recorders = append(recorders, journalRecorder)
		checks["database"] = db.HealthCheck
	} else {
		log.Info("journal disabled")
	}

	// InfluxDB
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
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

		recorders = append(recorders, &influxRecorder{client: influxClient})
		checks["influxdb"] = influxClient.HealthCheck
	} else {
		log.Info("InfluxDB disabled")
	}

	// MQTT
	var mqttClient *mqtt.Client
	var bridgeMQTT bridge.MQTTClient
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
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
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		bridgeMQTT = &mqttBridgeAdapter{client: mqttClient}
		checks["mqtt"] = mqttClient.HealthCheck
	} else {
		log.Info("MQTT disabled")
	}

	// OBS
	obsClient, err := obsws.Dial(ctx, obsws.Config{
		URL:            cfg.OBS.URL,
		Password:       cfg.OBS.Password,
		ConnectTimeout: cfg.GetConnectTimeout(),
		RequestTimeout: cfg.GetRequestTimeout(),
	})
	if err != nil {
		return fmt.Errorf("connecting to OBS: %w", err)
	}
	defer func() {
		log.Info("closing OBS connection")
		if closeErr := obsClient.Close(); closeErr != nil {
			log.Error("error closing OBS connection", "error", closeErr)
		}
	}()
	obsClient.SetLogger(log.Component("obsws"))
	obsClient.SetOnDisconnect(func(err error) {
		log.Error("OBS connection lost", "error", err)
		cancel(fmt.Errorf("%w: %w", errOBSLost, err))
	})
	log.Info("OBS connected", "url", cfg.OBS.URL)
	checks["obs"] = obsClient.HealthCheck

	// Bridge
	cueSender := osc.NewClient(osc.ClientConfig{Host: cfg.OSC.Send.Host, Port: cfg.OSC.Send.Port})

	b, err := bridge.NewBridge(bridge.BridgeOptions{
		Config: bridge.Config{
			ID:             cfg.Bridge.ID,
			EnableCues:     cfg.Bridge.EnableCues,
			QueueSize:      cfg.Bridge.QueueSize,
			Workers:        cfg.Bridge.Workers,
			HealthInterval: cfg.GetHealthInterval(),
		},
		OBS:       obsClient,
		OBSStatus: obsClient,
		Cues:      cueSender,
		MQTT:      bridgeMQTT,
		Recorders: recorders,
		Version:   version,
		Logger:    log.Component("bridge"),
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	obsClient.SetOnEvent(b.HandleEvent)

	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer b.Stop()

	// OSC listener
	oscServer, err := osc.Listen(osc.ServerConfig{Address: cfg.OSC.Listen.Address()}, b.HandleOSC)
	if err != nil {
		return fmt.Errorf("starting OSC listener: %w", err)
	}
	oscServer.SetLogger(log.Component("osc"))
	go func() {
		if serveErr := oscServer.Serve(); serveErr != nil && !errors.Is(serveErr, osc.ErrServerClosed) {
			log.Error("OSC listener stopped", "error", serveErr)
		}
	}()
	defer func() {
		if closeErr := oscServer.Close(); closeErr != nil {
			log.Error("error closing OSC listener", "error", closeErr)
		}
	}()
	log.Info("OSC ready",
		"listen", oscServer.Addr().String(),
		"send", cueSender.Target(),
		"cues_enabled", cfg.Bridge.EnableCues,
	)

	// HTTP status server
	if collector != nil {
		if err := watchConnections(collector, obsClient, mqttClient); err != nil {
			return fmt.Errorf("registering connection metrics: %w", err)
		}

		srv, err := api.New(api.Deps{
			Config:   cfg.Metrics,
			Logger:   log.Component("api"),
			Gatherer: collector.Registry(),
			Stats:    b,
			Journal:  journalRepo,
			Checks:   checks,
			Version:  version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("obsosc running")

	if err := awaitShutdown(ctx, cancel, obsClient.Done()); err != nil {
		return err
	}

	log.Info("shutting down")
	return nil
}

// awaitShutdown blocks until ctx ends or the OBS connection closes. Watching
// obsDone covers a drop that happened before SetOnDisconnect was installed.
// It returns the errOBSLost cause, or nil for a requested shutdown.
func awaitShutdown(ctx context.Context, cancel context.CancelCauseFunc, obsDone <-chan struct{}) error {
	select {
	case <-ctx.Done():
	case <-obsDone:
		cancel(errOBSLost)
	}

	if cause := context.Cause(ctx); errors.Is(cause, errOBSLost) {
		return cause
	}
	return nil
}

// getConfigPath returns the configuration file path.
// Checks OBSOSC_CONFIG environment variable first, then uses default.
func getConfigPath() string {
	if path := os.Getenv("OBSOSC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// watchConnections exposes connection gauges for OBS and, when enabled, MQTT.
func watchConnections(collector *metrics.Collector, obsClient *obsws.Client, mqttClient *mqtt.Client) error {
	if err := collector.WatchConnection("obs", obsClient); err != nil {
		return err
	}
	if mqttClient != nil {
		return collector.WatchConnection("mqtt", mqttClient)
	}
	return nil
}

// Energy Sensors - telegram ingestion and load clustering service
//
// This is the main entry point for the energy sensors service. It accepts
// power-meter telegrams over HTTP and MQTT, stores them as events in
// SQLite, mirrors them to InfluxDB, and periodically groups them into load
// signatures with mean-shift clustering.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/hstefan/energy-sensors/migrations"

	"github.com/hstefan/energy-sensors/internal/api"
	"github.com/hstefan/energy-sensors/internal/clustering"
	"github.com/hstefan/energy-sensors/internal/event"
	"github.com/hstefan/energy-sensors/internal/infrastructure/config"
	"github.com/hstefan/energy-sensors/internal/infrastructure/database"
	"github.com/hstefan/energy-sensors/internal/infrastructure/influxdb"
	"github.com/hstefan/energy-sensors/internal/infrastructure/logging"
	"github.com/hstefan/energy-sensors/internal/infrastructure/metrics"
	"github.com/hstefan/energy-sensors/internal/infrastructure/mqtt"
	"github.com/hstefan/energy-sensors/internal/ingest"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	// clusteringRunTimeout bounds one background clustering computation.
	clusteringRunTimeout = 10 * time.Minute

	// workerShutdownTimeout is how long shutdown waits for a running
	// clustering computation.
	workerShutdownTimeout = 30 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting energy sensors",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := config.Path()
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
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	reg := metrics.New()
	eventRepo := event.NewSQLiteRepository(db.DB)
	clusterRepo := clustering.NewSQLiteRepository(db.DB)

	// The hub is shared by the ingest service, the clustering callback and
	// the API server, so it is created here rather than by the server.
	hub := api.NewHub(cfg.WebSocket, log, reg)
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go hub.Run(hubCtx)

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
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

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = connectMQTT(cfg.MQTT, log, reg)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
	} else {
		log.Info("MQTT disabled")
	}

	svc := ingest.NewService(eventRepo, cfg.Ingest, reg)
	svc.SetLogger(log)
	svc.SetBroadcaster(hub)
	if influxClient != nil {
		svc.SetPointWriter(influxClient)
	}
	if mqttClient != nil {
		svc.SetPublisher(mqttClient, mqttClient.Topics())
	}

	var computer api.ClusterComputer
	if cfg.Clustering.Enabled {
		engine := clustering.NewEngine(eventRepo, clusterRepo, cfg.Clustering, reg)
		engine.SetLogger(log)
		engine.SetOnRun(clusterRunNotifier(log, hub, mqttClient, influxClient))
		computer = engine

		worker := clustering.NewBatchWorker(engine, cfg.Clustering.BatchSize, clusteringRunTimeout)
		worker.SetLogger(log)
		svc.SetBatchReporter(worker)
		defer func() {
			log.Info("stopping clustering worker")
			closeCtx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
			defer cancel()
			if closeErr := worker.Close(closeCtx); closeErr != nil {
				log.Error("error stopping clustering worker", "error", closeErr)
			}
		}()
		log.Info("clustering enabled", "batch_size", cfg.Clustering.BatchSize)
	} else {
		log.Info("clustering disabled")
	}

	if mqttClient != nil && cfg.Ingest.MQTTSubscribe {
		sub := ingest.NewSubscriber(mqttClient, svc, mqttClient.Topics(), mqttClient.QoS())
		sub.SetLogger(log)
		if startErr := sub.Start(ctx); startErr != nil {
			return fmt.Errorf("starting MQTT ingestion: %w", startErr)
		}
		defer func() {
			log.Info("stopping MQTT ingestion")
			if stopErr := sub.Stop(); stopErr != nil {
				log.Error("error stopping MQTT ingestion", "error", stopErr)
			}
		}()
		log.Info("MQTT ingestion started", "topic", mqttClient.Topics().AllTelegrams())
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	server, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		Logger:      log,
		Events:      eventRepo,
		Clusters:    clusterRepo,
		Ingest:      svc,
		Engine:      computer,
		Metrics:     reg,
		Checks:      healthCheckers(db, mqttClient, influxClient),
		ExternalHub: hub,
		Version:     version,
	})
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

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order: API server, MQTT
	// ingestion, clustering worker, MQTT, InfluxDB, hub, database.

	log.Info("energy sensors stopped")
	return nil
}

// connectMQTT connects to the broker and keeps the connection gauge
// current.
func connectMQTT(cfg config.MQTTConfig, log *logging.Logger, reg *metrics.Registry) (*mqtt.Client, error) {
	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log)
	reg.SetMQTTConnected(true)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
	)

	client.SetOnConnect(func() {
		reg.SetMQTTConnected(true)
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		reg.SetMQTTConnected(false)
		log.Warn("MQTT disconnected", "error", err)
	})
	return client, nil
}

// clusterRunNotifier returns the callback run after every successful
// clustering computation. mqttClient and influxClient may be nil.
func clusterRunNotifier(log *logging.Logger, hub *api.Hub, mqttClient *mqtt.Client, influxClient *influxdb.Client) func(*clustering.Summary) {
	return func(s *clustering.Summary) {
		hub.Broadcast(api.ChannelClustersUpdated, s)

		if influxClient != nil {
			sizes := make(map[int]int, len(s.Clusters))
			for _, c := range s.Clusters {
				sizes[c.Label] = c.Size
			}
			influxClient.WriteClusterRun(s.Run.ID, s.Run.EventCount, s.Run.OrphanCount, s.Run.Bandwidth, sizes, s.Run.FinishedAt)
		}

		if mqttClient != nil {
			if err := mqttClient.PublishJSON(mqttClient.Topics().Clusters(), s, true); err != nil {
				log.Warn("publishing cluster summary failed", "run_id", s.Run.ID, "error", err)
			}
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// healthCheckers lists the components reported on /api/v1/health.
func healthCheckers(db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) map[string]api.HealthChecker {
	checks := map[string]api.HealthChecker{"database": db}
	if mqttClient != nil {
		checks["mqtt"] = mqttClient
	}
	if influxClient != nil {
		checks["influxdb"] = influxClient
	}
	return checks
}

// background runs the extension background process: it wires storage, the browser adapter and the
// telemetry sink, brings up every store, and serves gRPC health until SIGINT or SIGTERM.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"accessibility-insights/background/internal/background"
	"accessibility-insights/background/internal/browser"
	"accessibility-insights/background/internal/config"
	"accessibility-insights/background/internal/db"
	issuedomain "accessibility-insights/background/internal/issuefiling/domain"
	"accessibility-insights/background/internal/logging"
	"accessibility-insights/background/internal/server"
	"accessibility-insights/background/internal/storage"
	"accessibility-insights/background/internal/telemetry"
	telemetryotel "accessibility-insights/background/internal/telemetry/otel"
	"accessibility-insights/background/internal/telemetry/producer"
)

// shutdownTimeout bounds the telemetry drain and provider shutdown.
const shutdownTimeout = 2 * telemetry.ShutdownDrainDuration

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("background: exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, cfg.OTelServiceName, cfg.ExtensionVersion, cfg.OTLPInsecure, logger)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = providers.Shutdown(sctx)
	}()

	persistedDB, persisted, err := openPersisted(cfg)
	if err != nil {
		return err
	}
	defer persistedDB.Close()

	localDB, err := db.OpenSQLite(cfg.LocalStoragePath)
	if err != nil {
		return fmt.Errorf("local storage: %w", err)
	}
	defer localDB.Close()
	local := storage.NewSQLStore(localDB, storage.SQLite)

	manifest := browser.Manifest{Name: cfg.ExtensionName, Version: cfg.ExtensionVersion}
	adapter, browserSpec, closeAdapter, err := openAdapter(ctx, cfg, manifest, local, logger)
	if err != nil {
		return err
	}
	defer closeAdapter()

	sink, closeSink := newSink(cfg, providers, logger)
	defer closeSink()

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	srv := server.NewGRPCServer(logger)
	go func() {
		logger.Info("background: gRPC health listening", zap.String("addr", cfg.GRPCAddr))
		if err := srv.GRPC.Serve(lis); err != nil {
			logger.Error("background: serve", zap.Error(err))
		}
	}()
	defer srv.Shutdown()

	boot := background.New(background.Deps{
		Adapter:   adapter,
		Persisted: persisted,
		Sink:      sink,
		Env: issuedomain.EnvironmentInfo{
			BrowserSpec:      browserSpec,
			ExtensionVersion: cfg.ExtensionVersion,
			AxeCoreVersion:   cfg.AxeCoreVersion,
			ToolName:         cfg.ExtensionName,
			ToolURL:          cfg.ToolURL,
		},
		Logger: logger,
	})
	if _, err := boot.Run(ctx); err != nil {
		// Listeners stay registered; the process keeps running and reports NOT_SERVING.
		logger.Warn("background: running degraded", zap.Error(err))
	} else {
		srv.SetServing()
	}

	<-ctx.Done()
	logger.Info("background: shutting down")
	srv.SetNotServing()
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := boot.Shutdown(sctx); err != nil {
		logger.Warn("background: shutdown incomplete", zap.Error(err))
	}
	return nil
}

// openPersisted opens Postgres when DATABASE_URL is set (migrations must have been applied with
// cmd/migrate), otherwise the SQLite file at PERSISTED_STATE_PATH.
func openPersisted(cfg *config.Config) (*sql.DB, storage.Store, error) {
	if cfg.UsesPostgres() {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("persisted state: %w", err)
		}
		return conn, storage.NewSQLStore(conn, storage.Postgres), nil
	}
	conn, err := db.OpenSQLite(cfg.PersistedStatePath)
	if err != nil {
		return nil, nil, fmt.Errorf("persisted state: %w", err)
	}
	return conn, storage.NewSQLStore(conn, storage.SQLite), nil
}

func openAdapter(ctx context.Context, cfg *config.Config, manifest browser.Manifest, local storage.Store, logger *zap.Logger) (browser.Adapter, string, func(), error) {
	if cfg.BrowserMode != "rod" {
		return browser.NewMemoryAdapter(manifest, local), "memory", func() {}, nil
	}
	a := browser.NewRodAdapter(browser.RodConfig{DebuggerURL: cfg.BrowserDebuggerURL, Headless: cfg.BrowserHeadless}, manifest, local, logger)
	if err := a.Start(ctx); err != nil {
		return nil, "", nil, fmt.Errorf("browser: %w", err)
	}
	return a, "Chrome (DevTools)", func() {
		if err := a.Close(); err != nil {
			logger.Warn("browser: close", zap.Error(err))
		}
	}, nil
}

func newSink(cfg *config.Config, providers *telemetryotel.Providers, logger *zap.Logger) (telemetry.Sink, func()) {
	switch cfg.TelemetryClient {
	case "otel":
		return telemetryotel.NewEventSink(providers.LoggerProvider), func() {}
	case "kafka":
		p := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.TelemetryKafkaTopic, logger)
		if p == nil {
			break
		}
		return p, func() {
			if err := p.Close(); err != nil {
				logger.Warn("telemetry: close producer", zap.Error(err))
			}
		}
	}
	return telemetry.NewLogSink(logger), func() {}
}

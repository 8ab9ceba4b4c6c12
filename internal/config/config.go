// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC health endpoint listens on (e.g. :8090).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is the zap level: debug, info, warn or error.
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// DatabaseURL is the Postgres DSN for persisted state. When empty, persisted state uses PersistedStatePath.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// PersistedStatePath is the SQLite file used for persisted state when DatabaseURL is empty.
	PersistedStatePath string `mapstructure:"PERSISTED_STATE_PATH"`
	// LocalStoragePath is the SQLite file backing browser-local storage.
	LocalStoragePath string `mapstructure:"LOCAL_STORAGE_PATH"`

	// BrowserMode selects the browser adapter: "memory" or "rod".
	BrowserMode string `mapstructure:"BROWSER_MODE"`
	// BrowserDebuggerURL is an existing Chrome DevTools websocket URL; empty launches a browser (rod mode only).
	BrowserDebuggerURL string `mapstructure:"BROWSER_DEBUGGER_URL"`
	// BrowserHeadless controls whether a launched Chrome is headless.
	BrowserHeadless bool `mapstructure:"BROWSER_HEADLESS"`

	// ExtensionName and ExtensionVersion are reported in the manifest, telemetry and issue footers.
	ExtensionName    string `mapstructure:"EXTENSION_NAME"`
	ExtensionVersion string `mapstructure:"EXTENSION_VERSION"`
	// AxeCoreVersion is the rules engine version quoted in filed issues.
	AxeCoreVersion string `mapstructure:"AXE_CORE_VERSION"`
	// ToolURL is linked from the footer of filed issues.
	ToolURL string `mapstructure:"TOOL_URL"`

	// TelemetryClient selects the telemetry sink: "log", "otel" or "kafka".
	TelemetryClient string `mapstructure:"TELEMETRY_CLIENT"`
	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty gives no-op providers.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// OTelServiceName is the service.name resource attribute.
	OTelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for telemetry events.
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`

	// Worker-only: Loki URL for the telemetry worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the telemetry worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

var (
	validLogLevels        = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validBrowserModes     = map[string]bool{"memory": true, "rod": true}
	validTelemetryClients = map[string]bool{"log": true, "otel": true, "kafka": true}
)

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8090")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("PERSISTED_STATE_PATH", "a11y-persisted.db")
	v.SetDefault("LOCAL_STORAGE_PATH", "a11y-local.db")
	v.SetDefault("BROWSER_MODE", "memory")
	v.SetDefault("BROWSER_DEBUGGER_URL", "")
	v.SetDefault("BROWSER_HEADLESS", true)
	v.SetDefault("EXTENSION_NAME", "Accessibility Insights for Web")
	v.SetDefault("EXTENSION_VERSION", "0.0.0-dev")
	v.SetDefault("AXE_CORE_VERSION", "4.10.0")
	v.SetDefault("TOOL_URL", "https://accessibilityinsights.io")
	v.SetDefault("TELEMETRY_CLIENT", "log")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "a11y-background")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "a11y-telemetry")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "a11y-telemetry-worker")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if !validLogLevels[cfg.LogLevel] {
		return nil, errors.New("config: LOG_LEVEL must be one of debug, info, warn, error")
	}

	cfg.BrowserMode = strings.ToLower(strings.TrimSpace(cfg.BrowserMode))
	if !validBrowserModes[cfg.BrowserMode] {
		return nil, errors.New("config: BROWSER_MODE must be memory or rod")
	}

	cfg.TelemetryClient = strings.ToLower(strings.TrimSpace(cfg.TelemetryClient))
	if !validTelemetryClients[cfg.TelemetryClient] {
		return nil, errors.New("config: TELEMETRY_CLIENT must be one of log, otel, kafka")
	}
	if cfg.TelemetryClient == "kafka" && len(cfg.KafkaBrokersList()) == 0 {
		return nil, errors.New("config: KAFKA_BROKERS must be set when TELEMETRY_CLIENT=kafka")
	}

	return &cfg, nil
}

// UsesPostgres reports whether persisted state is stored in Postgres rather than SQLite.
func (c *Config) UsesPostgres() bool {
	return c != nil && strings.TrimSpace(c.DatabaseURL) != ""
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

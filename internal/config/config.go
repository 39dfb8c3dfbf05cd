// Package config loads warden configuration from an optional TOML base file,
// an optional per-environment overlay, and environment variable overrides.
package config

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/warden/pkg/database"
	"github.com/JaimeStill/warden/pkg/dynamo"
	"github.com/JaimeStill/warden/pkg/events"
	"github.com/JaimeStill/warden/pkg/metrics"
	"github.com/JaimeStill/warden/pkg/runlock"
	"github.com/JaimeStill/warden/pkg/storage"
	"github.com/JaimeStill/warden/pkg/tracing"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvWardenEnv             = "WARDEN_ENV"
	EnvWardenShutdownTimeout = "WARDEN_SHUTDOWN_TIMEOUT"
	EnvWardenVersion         = "WARDEN_VERSION"
	EnvWardenStoreBackend    = "WARDEN_STORE_BACKEND"
)

const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
)

var dynamoEnv = &dynamo.Env{
	Region:      "WARDEN_DYNAMODB_REGION",
	Endpoint:    "WARDEN_DYNAMODB_ENDPOINT",
	TableName:   "DYNAMODB_TABLE_NAME",
	ConnTimeout: "WARDEN_DYNAMODB_CONN_TIMEOUT",
}

// DatabaseEnv names the environment variables read into [database.Config].
// cmd/migrate shares it so migrations target the database the server uses.
var DatabaseEnv = &database.Env{
	Host:            "WARDEN_DB_HOST",
	Port:            "WARDEN_DB_PORT",
	Name:            "WARDEN_DB_NAME",
	Schema:          "WARDEN_DB_SCHEMA",
	User:            "WARDEN_DB_USER",
	Password:        "WARDEN_DB_PASSWORD",
	SSLMode:         "WARDEN_DB_SSL_MODE",
	MaxOpenConns:    "WARDEN_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "WARDEN_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "WARDEN_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "WARDEN_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "WARDEN_STORAGE_CONTAINER_NAME",
	ConnectionString: "WARDEN_STORAGE_CONNECTION_STRING",
	ServiceURL:       "WARDEN_STORAGE_SERVICE_URL",
	MaxListSize:      "WARDEN_STORAGE_MAX_LIST_SIZE",
}

var tracingEnv = &tracing.Env{
	Enabled:     "WARDEN_TRACING_ENABLED",
	Endpoint:    "WARDEN_TRACING_ENDPOINT",
	SampleRatio: "WARDEN_TRACING_SAMPLE_RATIO",
}

var metricsEnv = &metrics.Env{
	Enabled:     "WARDEN_METRICS_ENABLED",
	Namespace:   "WARDEN_METRICS_NAMESPACE",
	Path:        "WARDEN_METRICS_PATH",
	PushGateway: "WARDEN_METRICS_PUSH_GATEWAY",
}

var eventsEnv = &events.Env{
	Brokers:      "WARDEN_EVENTS_BROKERS",
	Topic:        "WARDEN_EVENTS_TOPIC",
	BatchTimeout: "WARDEN_EVENTS_BATCH_TIMEOUT",
	WriteTimeout: "WARDEN_EVENTS_WRITE_TIMEOUT",
}

var lockEnv = &runlock.Env{
	Addr:     "WARDEN_LOCK_ADDR",
	Password: "WARDEN_LOCK_PASSWORD",
	DB:       "WARDEN_LOCK_DB",
	Key:      "WARDEN_LOCK_KEY",
	TTL:      "WARDEN_LOCK_TTL",
}

// StoreConfig selects the coupon store backend.
type StoreConfig struct {
	Backend string `toml:"backend"`
}

// Config is the root configuration for warden.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Store           StoreConfig      `toml:"store"`
	DynamoDB        dynamo.Config    `toml:"dynamodb"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	Probe           ProbeConfig      `toml:"probe"`
	Expiration      ExpirationConfig `toml:"expiration"`
	Tracing         tracing.Config   `toml:"tracing"`
	Metrics         metrics.Config   `toml:"metrics"`
	Events          events.Config    `toml:"events"`
	Lock            runlock.Config   `toml:"lock"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the WARDEN_ENV value, defaulting to "local".
func (c *Config) Env() string {
	return cmp.Or(os.Getenv(EnvWardenEnv), "local")
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return duration(c.ShutdownTimeout)
}

// Load decodes config.toml and the config.<WARDEN_ENV>.toml overlay when
// they exist, then finalizes every section. Unknown keys are an error.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := decodeFile(BaseConfigFile, cfg); err != nil {
		return nil, err
	}

	if env := os.Getenv(EnvWardenEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		overlay := &Config{}
		if err := decodeFile(path, overlay); err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	c.ShutdownTimeout = cmp.Or(overlay.ShutdownTimeout, c.ShutdownTimeout)
	c.Version = cmp.Or(overlay.Version, c.Version)
	c.Store.Backend = cmp.Or(overlay.Store.Backend, c.Store.Backend)
	c.Server.Merge(&overlay.Server)
	c.DynamoDB.Merge(&overlay.DynamoDB)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Probe.Merge(&overlay.Probe)
	c.Expiration.Merge(&overlay.Expiration)
	c.Tracing.Merge(&overlay.Tracing)
	c.Metrics.Merge(&overlay.Metrics)
	c.Events.Merge(&overlay.Events)
	c.Lock.Merge(&overlay.Lock)
}

func (c *Config) finalize() error {
	c.ShutdownTimeout = cmp.Or(os.Getenv(EnvWardenShutdownTimeout), c.ShutdownTimeout, "30s")
	c.Version = cmp.Or(os.Getenv(EnvWardenVersion), c.Version, "0.1.0")
	c.Store.Backend = cmp.Or(os.Getenv(EnvWardenStoreBackend), c.Store.Backend, BackendDynamoDB)

	if d, err := time.ParseDuration(c.ShutdownTimeout); err != nil || d <= 0 {
		return fmt.Errorf("shutdown_timeout must be a positive duration, got %q", c.ShutdownTimeout)
	}
	switch c.Store.Backend {
	case BackendDynamoDB, BackendPostgres:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"dynamodb", func() error { return c.DynamoDB.Finalize(dynamoEnv) }},
		{"database", func() error {
			if c.Store.Backend != BackendPostgres {
				return nil
			}
			return c.Database.Finalize(DatabaseEnv)
		}},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"api", c.API.Finalize},
		{"probe", c.Probe.Finalize},
		{"expiration", c.Expiration.Finalize},
		{"tracing", func() error { return c.Tracing.Finalize(tracingEnv) }},
		{"metrics", func() error { return c.Metrics.Finalize(metricsEnv) }},
		{"events", func() error { return c.Events.Finalize(eventsEnv) }},
		{"lock", func() error { return c.Lock.Finalize(lockEnv) }},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}

	if c.Lock.Enabled() && c.Lock.TTLDuration() <= c.Expiration.RunTimeoutDuration() {
		return fmt.Errorf(
			"lock: ttl %s must exceed expiration run_timeout %s",
			c.Lock.TTL, c.Expiration.RunTimeout,
		)
	}
	return nil
}

// decodeFile strictly decodes the TOML file at path into cfg. A missing
// file leaves cfg untouched.
func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: unknown keys:\n%s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

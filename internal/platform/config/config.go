package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultStorageDriver   = DriverFile
	defaultFilePath        = "data/pos.json"
	defaultSQLitePath      = "data/pos.db"
	defaultKeyPrefix       = "autoparts_"
	defaultKVCollection    = "pos_kv"
	defaultBirthdayWindow  = 7
	defaultTopCustomers    = 5
	defaultImportMaxBytes  = 10 << 20
	defaultLogLevel        = "info"
)

// StorageDriver names a KV backend.
type StorageDriver string

const (
	DriverMemory    StorageDriver = "memory"
	DriverFile      StorageDriver = "file"
	DriverSQLite    StorageDriver = "sqlite"
	DriverPostgres  StorageDriver = "postgres"
	DriverFirestore StorageDriver = "firestore"
)

// Config captures runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Storage   StorageConfig
	Firestore FirestoreConfig
	Events    EventsConfig
	Shop      ShopConfig
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string
}

// StorageConfig selects and configures the collection backend.
type StorageConfig struct {
	Driver      StorageDriver
	FilePath    string
	SQLitePath  string
	PostgresDSN string
	KeyPrefix   string
}

// FirestoreConfig stores Firestore connection parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
	Collection   string
}

// EventsConfig configures Pub/Sub publishing of order events. An empty topic disables it.
type EventsConfig struct {
	ProjectID string
	Topic     string
}

// Enabled reports whether events should be published.
func (c EventsConfig) Enabled() bool {
	return strings.TrimSpace(c.Topic) != ""
}

// ShopConfig holds business knobs.
type ShopConfig struct {
	ClampDiscount      bool
	BirthdayWindowDays int
	TopCustomers       int
	ImportMaxBytes     int64
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path. An empty path disables dotenv loading.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects explicit values that take precedence over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load resolves configuration with precedence defaults < .env < process env < env map.
func Load(_ context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if value, ok := options.envMap[key]; ok {
			return value, true
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		value, ok := dotEnv[key]
		return value, ok
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            stringWithDefault(lookup, "POS_SERVER_PORT", defaultPort),
			ReadTimeout:     durationWithDefault(lookup, "POS_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "POS_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "POS_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "POS_SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Log: LogConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel)),
		},
		Storage: StorageConfig{
			Driver:      StorageDriver(strings.ToLower(stringWithDefault(lookup, "POS_STORAGE_DRIVER", string(defaultStorageDriver)))),
			FilePath:    stringWithDefault(lookup, "POS_STORAGE_FILE_PATH", defaultFilePath),
			SQLitePath:  stringWithDefault(lookup, "POS_STORAGE_SQLITE_PATH", defaultSQLitePath),
			PostgresDSN: stringWithDefault(lookup, "POS_STORAGE_POSTGRES_DSN", ""),
			KeyPrefix:   stringWithDefault(lookup, "POS_STORAGE_KEY_PREFIX", defaultKeyPrefix),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "POS_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "POS_FIRESTORE_EMULATOR_HOST", ""),
			Collection:   stringWithDefault(lookup, "POS_FIRESTORE_COLLECTION", defaultKVCollection),
		},
		Events: EventsConfig{
			ProjectID: stringWithDefault(lookup, "POS_EVENTS_PROJECT_ID", ""),
			Topic:     stringWithDefault(lookup, "POS_EVENTS_TOPIC", ""),
		},
		Shop: ShopConfig{
			ClampDiscount:      boolWithDefault(lookup, "POS_CUSTOMER_DISCOUNT_CLAMP", true),
			BirthdayWindowDays: intWithDefault(lookup, "POS_BIRTHDAY_WINDOW_DAYS", defaultBirthdayWindow),
			TopCustomers:       intWithDefault(lookup, "POS_STATS_TOP_CUSTOMERS", defaultTopCustomers),
			ImportMaxBytes:     int64(intWithDefault(lookup, "POS_IMPORT_MAX_BYTES", defaultImportMaxBytes)),
		},
	}

	if cfg.Events.ProjectID == "" {
		cfg.Events.ProjectID = cfg.Firestore.ProjectID
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var invalid []string

	if strings.TrimSpace(cfg.Server.Port) == "" {
		invalid = append(invalid, "Server.Port")
	}
	switch cfg.Storage.Driver {
	case DriverMemory:
	case DriverFile:
		if strings.TrimSpace(cfg.Storage.FilePath) == "" {
			invalid = append(invalid, "Storage.FilePath")
		}
	case DriverSQLite:
		if strings.TrimSpace(cfg.Storage.SQLitePath) == "" {
			invalid = append(invalid, "Storage.SQLitePath")
		}
	case DriverPostgres:
		if strings.TrimSpace(cfg.Storage.PostgresDSN) == "" {
			invalid = append(invalid, "Storage.PostgresDSN")
		}
	case DriverFirestore:
		if strings.TrimSpace(cfg.Firestore.ProjectID) == "" {
			invalid = append(invalid, "Firestore.ProjectID")
		}
		if strings.TrimSpace(cfg.Firestore.Collection) == "" {
			invalid = append(invalid, "Firestore.Collection")
		}
	default:
		invalid = append(invalid, "Storage.Driver")
	}
	if cfg.Events.Enabled() && strings.TrimSpace(cfg.Events.ProjectID) == "" {
		invalid = append(invalid, "Events.ProjectID")
	}
	if cfg.Shop.BirthdayWindowDays < 0 {
		invalid = append(invalid, "Shop.BirthdayWindowDays")
	}
	if cfg.Shop.TopCustomers <= 0 {
		invalid = append(invalid, "Shop.TopCustomers")
	}
	if cfg.Shop.ImportMaxBytes <= 0 {
		invalid = append(invalid, "Shop.ImportMaxBytes")
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

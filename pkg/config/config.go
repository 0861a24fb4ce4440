package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bookfast/pkg/client"
	"bookfast/pkg/logger"

	"github.com/joho/godotenv"
)

const (
	dotEnvFile         = ".env"
	minSigningKeyBytes = 16
)

var (
	mongoURIRegex         = regexp.MustCompile(`^mongodb(\+srv)?://`)
	mongoCredentialsRegex = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	pgCredentialsRegex    = regexp.MustCompile(`(postgres(ql)?://)[^:]+:[^@]+@`)
)

type Config struct {
	StoreDriver string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	PostgresDSN         string
	PostgresMaxConns    int
	PostgresConnTimeout time.Duration

	ResourcesFile string

	Port string

	JWTSigningKey  string
	AllowedOrigins []string

	LockTTL        time.Duration
	ReaperInterval time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	NotificationsEnabled  bool
	NotificationsTopic    string
	NotificationsDLQTopic string

	Log    *logger.Logger
	Client *client.Client
}

// Load reads an optional .env file, then the environment, and exits the
// process when the result does not validate.
func Load(serviceName string) *Config {
	cfg := load(serviceName)
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// LoadStore is Load for jobs that only talk to the store, such as migrations.
func LoadStore(jobName string) *Config {
	cfg := load(jobName)
	if errs := cfg.validateStore(); len(errs) > 0 {
		cfg.Log.Fatal(formatErrors(errs).Error())
	}
	cfg.Log.Info("Store configuration loaded",
		"store_driver", cfg.StoreDriver,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"postgres_dsn", redactPostgresDSN(cfg.PostgresDSN),
		"resources_file", cfg.ResourcesFile,
	)
	return cfg
}

func load(serviceName string) *Config {
	dotEnvErr := godotenv.Load(dotEnvFile)

	cfg := &Config{
		StoreDriver: strings.ToLower(getEnvStr(EnvStoreDriver, DefaultStoreDriver)),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		PostgresDSN:         getEnvStr(EnvPostgresDSN, DefaultPostgresDSN),
		PostgresMaxConns:    getEnvNum(EnvPostgresMaxConns, DefaultPostgresMaxConns),
		PostgresConnTimeout: getEnvDuration(EnvPostgresConnTimeout, DefaultPostgresConnTimeout),

		ResourcesFile: getEnvStr(EnvResourcesFile, ""),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSigningKey:  getEnvStr(EnvJWTSigningKey, ""),
		AllowedOrigins: getEnvList(EnvAllowedOrigins, DefaultAllowedOrigins),

		LockTTL:        getEnvDuration(EnvLockTTL, DefaultLockTTL),
		ReaperInterval: getEnvDuration(EnvReaperInterval, DefaultReaperInterval),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		NotificationsEnabled:  getEnvBool(EnvNotificationsEnabled, DefaultNotificationsEnabled),
		NotificationsTopic:    getEnvStr(EnvNotificationsTopic, DefaultNotificationsTopic),
		NotificationsDLQTopic: getEnvStr(EnvNotificationsDLQTopic, ""),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if dotEnvErr != nil && !errors.Is(dotEnvErr, fs.ErrNotExist) {
		cfg.Log.Warn("Failed to read .env file, using process environment only", "error", dotEnvErr)
	}
	return cfg
}

// SetStore connects the client for the configured driver. The memory driver
// needs no connection.
func (cfg *Config) SetStore() {
	switch cfg.StoreDriver {
	case DriverMongo:
		cfg.SetMongo()
	case DriverPostgres:
		cfg.SetPostgres()
	default:
		cfg.Log.Info("Using in-memory store; data is lost on restart")
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetPostgres() {
	cfg.Client.SetPostgres(cfg.Log, cfg.PostgresDSN, int32(cfg.PostgresMaxConns), cfg.PostgresConnTimeout)
}

func (cfg *Config) Validate() error {
	errs := cfg.validateStore()

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if len(cfg.JWTSigningKey) < minSigningKeyBytes {
		errs = append(errs, fmt.Sprintf("JWTSigningKey must be at least %d bytes", minSigningKeyBytes))
	}

	if cfg.LockTTL <= 0 {
		errs = append(errs, fmt.Sprintf("LockTTL must be positive, got: %s", cfg.LockTTL))
	}
	if cfg.ReaperInterval <= 0 {
		errs = append(errs, fmt.Sprintf("ReaperInterval must be positive, got: %s", cfg.ReaperInterval))
	}
	if cfg.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errs = append(errs, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.NotificationsEnabled && cfg.NotificationsTopic == "" {
		errs = append(errs, "NotificationsTopic cannot be empty when notifications are enabled")
	}

	if len(errs) > 0 {
		return formatErrors(errs)
	}

	return nil
}

func (cfg *Config) validateStore() []string {
	var errs []string

	switch cfg.StoreDriver {
	case DriverMongo:
		if cfg.MongoURI == "" {
			errs = append(errs, "MongoURI cannot be empty")
		} else if !mongoURIRegex.MatchString(cfg.MongoURI) {
			errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errs = append(errs, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errs = append(errs, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	case DriverPostgres:
		if cfg.PostgresDSN == "" {
			errs = append(errs, "PostgresDSN cannot be empty")
		}
		if cfg.PostgresMaxConns <= 0 {
			errs = append(errs, fmt.Sprintf("PostgresMaxConns must be positive, got: %d", cfg.PostgresMaxConns))
		}
		if cfg.PostgresConnTimeout <= 0 {
			errs = append(errs, fmt.Sprintf("PostgresConnTimeout must be positive, got: %s", cfg.PostgresConnTimeout))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Sprintf("StoreDriver must be one of [mongo, postgres, memory], got: %s", cfg.StoreDriver))
	}

	return errs
}

func formatErrors(errs []string) error {
	errMsg := "Configuration validation failed:\n"
	for i, err := range errs {
		errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
	}
	return fmt.Errorf("%s", errMsg)
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"store_driver", cfg.StoreDriver,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"postgres_dsn", redactPostgresDSN(cfg.PostgresDSN),
		"postgres_max_conns", cfg.PostgresMaxConns,
		"resources_file", cfg.ResourcesFile,
		"port", cfg.Port,
		"jwt_signing_key_set", cfg.JWTSigningKey != "",
		"allowed_origins", cfg.AllowedOrigins,
		"lock_ttl", cfg.LockTTL,
		"reaper_interval", cfg.ReaperInterval,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"notifications_enabled", cfg.NotificationsEnabled,
		"notifications_topic", cfg.NotificationsTopic,
	)
}

func redactMongoURI(uri string) string {
	return mongoCredentialsRegex.ReplaceAllString(uri, "${1}***:***@")
}

func redactPostgresDSN(dsn string) string {
	return pgCredentialsRegex.ReplaceAllString(dsn, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnvStr(key, fallback)
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

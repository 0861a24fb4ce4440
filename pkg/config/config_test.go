package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		StoreDriver:       DriverMemory,
		Port:              "8080",
		JWTSigningKey:     "0123456789abcdef0123",
		LockTTL:           DefaultLockTTL,
		ReaperInterval:    DefaultReaperInterval,
		RateLimitRequests: DefaultRateLimitRequests,
		RateLimitWindow:   DefaultRateLimitWindow,
		RequestTimeout:    DefaultRequestTimeout,
		IdempotencyTTL:    DefaultIdempotencyTTL,
		MaxRequestSize:    DefaultMaxRequestSize,
		ReadTimeout:       DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		ShutdownTimeout:   DefaultShutdownTimeout,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid memory config", mutate: func(*Config) {}},
		{
			name: "valid mongo config",
			mutate: func(c *Config) {
				c.StoreDriver = DriverMongo
				c.MongoURI = "mongodb+srv://user:pw@cluster.example.net"
				c.MongoDatabaseName = "bookfast"
				c.MongoConnTimeout = time.Second
			},
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.StoreDriver = "redis" },
			wantErr: "StoreDriver must be one of",
		},
		{
			name: "mongo with bad scheme",
			mutate: func(c *Config) {
				c.StoreDriver = DriverMongo
				c.MongoURI = "http://localhost"
				c.MongoDatabaseName = "x"
				c.MongoConnTimeout = time.Second
			},
			wantErr: "MongoURI must start with",
		},
		{
			name: "postgres without pool size",
			mutate: func(c *Config) {
				c.StoreDriver = DriverPostgres
				c.PostgresDSN = DefaultPostgresDSN
				c.PostgresConnTimeout = time.Second
			},
			wantErr: "PostgresMaxConns must be positive",
		},
		{
			name:    "short signing key",
			mutate:  func(c *Config) { c.JWTSigningKey = "short" },
			wantErr: "JWTSigningKey must be at least",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Port = "70000" },
			wantErr: "Port must be between",
		},
		{
			name:    "zero lock ttl",
			mutate:  func(c *Config) { c.LockTTL = 0 },
			wantErr: "LockTTL must be positive",
		},
		{
			name: "notifications without topic",
			mutate: func(c *Config) {
				c.NotificationsEnabled = true
				c.NotificationsTopic = ""
			},
			wantErr: "NotificationsTopic cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.LockTTL = 0
	cfg.ReaperInterval = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1. ")
	assert.Contains(t, err.Error(), "2. ")
}

func TestRedaction(t *testing.T) {
	assert.Equal(t, "mongodb://***:***@db:27017", redactMongoURI("mongodb://admin:secret@db:27017"))
	assert.Equal(t, "postgres://***:***@db:5432/app", redactPostgresDSN("postgres://app:secret@db:5432/app"))
	assert.Equal(t, "mongodb://db:27017", redactMongoURI("mongodb://db:27017"))
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("BOOKFAST_TEST_DURATION", "45s")
	t.Setenv("BOOKFAST_TEST_BAD_DURATION", "soon")
	t.Setenv("BOOKFAST_TEST_BOOL", "true")
	t.Setenv("BOOKFAST_TEST_LIST", " https://a.example , ,https://b.example")

	assert.Equal(t, 45*time.Second, getEnvDuration("BOOKFAST_TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, getEnvDuration("BOOKFAST_TEST_BAD_DURATION", time.Second))
	assert.True(t, getEnvBool("BOOKFAST_TEST_BOOL", false))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, getEnvList("BOOKFAST_TEST_LIST", ""))
	assert.Equal(t, 7, getEnvNum("BOOKFAST_TEST_MISSING", 7))
	assert.True(t, strings.HasPrefix(getEnvStr("BOOKFAST_TEST_MISSING", "fallback"), "fall"))
}

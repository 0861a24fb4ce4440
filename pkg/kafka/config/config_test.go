package kafka_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, DefaultProducerMaxAttempts, cfg.ProducerMaxAttempts)
	assert.Equal(t, DefaultProducerCompression, cfg.ProducerCompression)
	assert.Equal(t, -1, cfg.ProducerRequireAcks)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "kafka-1:9092, kafka-2:9092")
	t.Setenv(EnvKafkaProducerCompression, "zstd")
	t.Setenv(EnvKafkaProducerWriteTimeout, "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
	assert.Equal(t, "zstd", cfg.ProducerCompression)
	assert.Equal(t, 2*time.Second, cfg.ProducerWriteTimeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Brokers:              []string{"localhost:9092"},
			ProducerMaxAttempts:  3,
			ProducerBatchTimeout: time.Millisecond,
			ProducerWriteTimeout: time.Second,
			ProducerRequireAcks:  1,
			ProducerCompression:  "gzip",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty broker", mutate: func(c *Config) { c.Brokers = []string{""} }, wantErr: "Broker 0 cannot be empty"},
		{name: "no brokers", mutate: func(c *Config) { c.Brokers = nil }, wantErr: "At least one Kafka broker"},
		{name: "bad compression", mutate: func(c *Config) { c.ProducerCompression = "brotli" }, wantErr: "ProducerCompression"},
		{name: "bad acks", mutate: func(c *Config) { c.ProducerRequireAcks = 2 }, wantErr: "ProducerRequireAcks"},
		{name: "zero attempts", mutate: func(c *Config) { c.ProducerMaxAttempts = 0 }, wantErr: "ProducerMaxAttempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

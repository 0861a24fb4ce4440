package config

const (
	EnvStoreDriver = "STORE_DRIVER"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPostgresDSN         = "POSTGRES_DSN"
	EnvPostgresMaxConns    = "POSTGRES_MAX_CONNS"
	EnvPostgresConnTimeout = "POSTGRES_CONN_TIMEOUT"

	EnvResourcesFile = "RESOURCES_FILE"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSigningKey  = "JWT_SIGNING_KEY"
	EnvAllowedOrigins = "ALLOWED_ORIGINS"

	EnvLockTTL        = "LOCK_TTL"
	EnvReaperInterval = "REAPER_INTERVAL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvNotificationsEnabled  = "NOTIFICATIONS_ENABLED"
	EnvNotificationsTopic    = "NOTIFICATIONS_TOPIC"
	EnvNotificationsDLQTopic = "NOTIFICATIONS_DLQ_TOPIC"
)

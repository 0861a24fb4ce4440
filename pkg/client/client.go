package client

import (
	"context"
	"time"

	"bookfast/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const disconnectTimeout = 10 * time.Second

// Client owns the process-wide store connections. At most one of Mongo or
// Postgres is set, depending on the configured driver.
type Client struct {
	Mongo    *mongo.Client
	Postgres *pgxpool.Pool
	log      *logger.Logger
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	c.log = log
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB", "error", err)
	}

	log.Info("Successfully connected to MongoDB")
	c.Mongo = client
}

func (c *Client) SetPostgres(log *logger.Logger, dsn string, maxConns int32, connTimeout time.Duration) {
	c.log = log
	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		log.Fatal("Invalid Postgres DSN", "error", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatal("Failed to create Postgres pool", "error", err)
	}

	if err := pool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping Postgres", "error", err)
	}

	log.Info("Successfully connected to Postgres", "max_conns", poolCfg.MaxConns)
	c.Postgres = pool
}

// Ping checks whichever store is connected. With no store it reports healthy,
// which is the case for the in-memory driver.
func (c *Client) Ping(ctx context.Context) error {
	if c.Mongo != nil {
		return c.Mongo.Ping(ctx, nil)
	}
	if c.Postgres != nil {
		return c.Postgres.Ping(ctx)
	}
	return nil
}

func (c *Client) GracefulShutdown() {
	if c.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		if err := c.Mongo.Disconnect(ctx); err != nil && c.log != nil {
			c.log.Error("Failed to disconnect from MongoDB", "error", err)
		}
		c.Mongo = nil
	}
	if c.Postgres != nil {
		c.Postgres.Close()
		c.Postgres = nil
	}
	if c.log != nil {
		c.log.Info("Store connections closed")
	}
}

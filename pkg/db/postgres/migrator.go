package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"bookfast/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrator applies the embedded goose migrations through the shared pool.
type Migrator struct {
	db  *sql.DB
	log *logger.Logger
}

func NewMigrator(pool *pgxpool.Pool, log *logger.Logger) (*Migrator, error) {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	return &Migrator{
		db:  stdlib.OpenDBFromPool(pool),
		log: log,
	}, nil
}

func (m *Migrator) Up(ctx context.Context) error {
	m.log.Info("Applying Postgres migrations")
	if err := goose.UpContext(ctx, m.db, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := m.Version(ctx)
	if err != nil {
		return err
	}
	m.log.Info("Postgres migrations applied", "version", version)
	return nil
}

func (m *Migrator) Down(ctx context.Context) error {
	if err := goose.DownContext(ctx, m.db, migrationsDir); err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	return nil
}

func (m *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Close releases the database/sql wrapper. The pool stays open.
func (m *Migrator) Close() error {
	return m.db.Close()
}

package main

import (
	"context"
	"flag"
	"time"

	mongoMigration "bookfast/internal/migrations/mongo"
	resourcesrepo "bookfast/internal/resources/repository"
	"bookfast/pkg/config"
	"bookfast/pkg/db/postgres"
)

const (
	JobName    = "migrate"
	jobTimeout = 120 * time.Second
)

func main() {
	down := flag.Bool("down", false, "roll back the latest postgres migration")
	seed := flag.Bool("seed", true, "upsert the RESOURCES_FILE catalog after migrating")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cfg := config.LoadStore(JobName)
	cfg.SetStore()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting migration job", "driver", cfg.StoreDriver)

	var resources resourcesrepo.ResourceRepository
	switch cfg.StoreDriver {
	case config.DriverMongo:
		if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
			cfg.Log.Fatal("Mongo migration failed", "error", err)
		}
		resources = resourcesrepo.NewMongoResourceRepository(cfg)
	case config.DriverPostgres:
		migratePostgres(ctx, cfg, *down)
		resources = resourcesrepo.NewPostgresResourceRepository(cfg)
	default:
		cfg.Log.Info("Nothing to migrate for driver", "driver", cfg.StoreDriver)
		return
	}

	if *seed && !*down && cfg.ResourcesFile != "" {
		catalog, err := resourcesrepo.LoadCatalog(cfg.ResourcesFile)
		if err != nil {
			cfg.Log.Fatal("Failed to load resource catalog", "path", cfg.ResourcesFile, "error", err)
		}
		if err := resourcesrepo.Seed(ctx, resources, catalog, cfg.Log); err != nil {
			cfg.Log.Fatal("Failed to seed resources", "error", err)
		}
	}

	cfg.Log.Info("Migration completed successfully")
}

func migratePostgres(ctx context.Context, cfg *config.Config, down bool) {
	migrator, err := postgres.NewMigrator(cfg.Client.Postgres, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create postgres migrator", "error", err)
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			cfg.Log.Error("Failed to close postgres migrator", "error", err)
		}
	}()

	if down {
		err = migrator.Down(ctx)
	} else {
		err = migrator.Up(ctx)
	}
	if err != nil {
		cfg.Log.Fatal("Postgres migration failed", "down", down, "error", err)
	}
}

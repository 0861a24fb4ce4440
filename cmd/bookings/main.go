package main

import (
	"time"

	"bookfast/internal/bookings/handler"
	bookingsrepo "bookfast/internal/bookings/repository"
	"bookfast/internal/bookings/service"
	"bookfast/internal/bookings/validator"
	"bookfast/internal/locks"
	"bookfast/internal/notify"
	"bookfast/internal/realtime"
	"bookfast/internal/reaper"
	resourceshandler "bookfast/internal/resources/handler"
	resourcesrepo "bookfast/internal/resources/repository"
	resourcesservice "bookfast/internal/resources/service"
	"bookfast/pkg/app"
	"bookfast/pkg/config"
	"bookfast/pkg/kafka"
	kafka_config "bookfast/pkg/kafka/config"
	kafka_middleware "bookfast/pkg/kafka/middleware"
	"bookfast/pkg/model"
)

const (
	ServiceName         = "bookings"
	notificationTimeout = 10 * time.Second
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStore()

	cfg.Log.Info("Starting Bookings service")
	bookingRepo, resourceRepo := initRepositories(cfg)

	registry := locks.NewRegistry(cfg.LockTTL, cfg.Log)
	hub := realtime.NewHub(cfg.Log)
	dispatcher, closeNotifier := initNotifications(cfg)

	bookingService := service.NewBookingService(
		bookingRepo,
		resourceRepo,
		validator.NewBookingValidator(cfg.Log),
		hub,
		dispatcher,
		cfg.Log,
	)
	gateway := realtime.NewGateway(hub, registry, resourceRepo, cfg.Log)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		realtime.NewHandler(gateway, cfg.AllowedOrigins, cfg.Log),
		handler.NewBookingHandler(bookingService, cfg.Log),
		resourceshandler.NewResourceHandler(resourcesservice.NewResourceService(resourceRepo, cfg.Log), cfg.Log),
	)
	serverApp.AddWorker(reaper.New(registry, hub, cfg.ReaperInterval, cfg.Log))
	serverApp.OnShutdown(dispatcher.Wait)
	serverApp.OnShutdown(closeNotifier)
	serverApp.Run()
}

func initRepositories(cfg *config.Config) (bookingsrepo.BookingRepository, resourcesrepo.ResourceRepository) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		cfg.Log.Info("Booking store initialized", "driver", cfg.StoreDriver, "database", cfg.MongoDatabaseName)
		return bookingsrepo.NewMongoBookingRepository(cfg), resourcesrepo.NewMongoResourceRepository(cfg)
	case config.DriverPostgres:
		cfg.Log.Info("Booking store initialized", "driver", cfg.StoreDriver)
		return bookingsrepo.NewPostgresBookingRepository(cfg), resourcesrepo.NewPostgresResourceRepository(cfg)
	}

	var catalog []*model.Resource
	if cfg.ResourcesFile != "" {
		var err error
		catalog, err = resourcesrepo.LoadCatalog(cfg.ResourcesFile)
		if err != nil {
			cfg.Log.Fatal("Failed to load resource catalog", "path", cfg.ResourcesFile, "error", err)
		}
	}
	cfg.Log.Info("Booking store initialized", "driver", cfg.StoreDriver, "resources", len(catalog))
	return bookingsrepo.NewMemoryBookingRepository(), resourcesrepo.NewMemoryResourceRepository(catalog)
}

// initNotifications returns the dispatcher and a close func for its sink.
// With notifications disabled, notices are only logged.
func initNotifications(cfg *config.Config) (*notify.Dispatcher, func()) {
	if !cfg.NotificationsEnabled {
		cfg.Log.Info("Notifications disabled, logging notices only")
		return notify.NewDispatcher(notify.NewLogNotifier(cfg.Log), notificationTimeout, cfg.Log), func() {}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotificationsTopic, cfg.NotificationsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	closeProducer := func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
	return notify.NewDispatcher(notify.NewKafkaNotifier(producer), notificationTimeout, cfg.Log), closeProducer
}

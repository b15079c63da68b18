package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"listing-service/internal/adapters/cache"
	logger_adapter "listing-service/internal/adapters/logger"
	"listing-service/internal/adapters/memory"
	"listing-service/internal/adapters/objectstore"
	postgres_adapter "listing-service/internal/adapters/postgres"
	rabbitmq_adapter "listing-service/internal/adapters/rabbitmq"
	"listing-service/internal/adapters/rest"
	"listing-service/internal/configs"
	"listing-service/internal/constants"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/usecase"
	"listing-service/internal/core/validation"
	fluentlogger "listing-service/pkg/fluent_logger"
	"listing-service/pkg/postgres"
	"listing-service/pkg/rabbitmq/rabbitmq_common"
	"listing-service/pkg/rabbitmq/rabbitmq_consumer"
	"listing-service/pkg/rabbitmq/rabbitmq_producer"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
)

const shutdownTimeout = 15 * time.Second

// App инкапсулирует все компоненты приложения
type App struct {
	config        *configs.AppConfig
	apiServer     *rest.Server
	connManager   *rabbitmq_common.ConnectionManager
	eventProducer *rabbitmq_producer.Publisher
	userEvents    *rabbitmq_adapter.UserEventsConsumerAdapter
	compensator   *usecase.BackgroundCompensator
	cache         *cache.PropertyCache
	pool          *pgxpool.Pool
	logger        port.LoggerPort
	fluentClient  *fluent.Fluent
}

// NewApp создает и инициализирует новый экземпляр приложения
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	app := &App{config: appConfig}

	// Логгер в stdout есть всегда, Fluent Bit подключается по конфигурации
	loggers := []port.LoggerPort{logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    logger_adapter.ParseLevel(appConfig.StdoutLogger.Level),
		IsJSON:   appConfig.StdoutLogger.JSON,
		UseColor: !appConfig.StdoutLogger.JSON,
	})}

	if appConfig.FluentBit.Enabled {
		fluentClient, err := fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
			Async:     true,
		})
		if err != nil {
			log.Printf("Warning: failed to create Fluent Bit client, continuing with stdout only: %v\n", err)
		} else {
			fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, logger_adapter.ParseLevel(appConfig.FluentBit.Level))
			if err != nil {
				fluentClient.Close()
				return nil, fmt.Errorf("failed to create fluent logger adapter: %w", err)
			}
			app.fluentClient = fluentClient
			loggers = append(loggers, fluentAdapter)
		}
	}

	multiLogger, err := logger_adapter.NewMultiLoggerAdapter(loggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi logger: %w", err)
	}
	baseLogger := multiLogger.WithFields(port.Fields{"service_name": appConfig.AppName})
	app.logger = baseLogger

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger initialized", port.Fields{
		"stdout_level":   appConfig.StdoutLogger.Level,
		"fluent_enabled": app.fluentClient != nil,
	})

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Справочник удобств
	catalog := domain.DefaultAmenityCatalog()
	if len(appConfig.Amenities.Names) > 0 {
		catalog = domain.NewAmenityCatalog(appConfig.Amenities.Version, appConfig.Amenities.Names)
	}
	appLogger.Info("Amenity catalog loaded", port.Fields{"version": catalog.Version(), "count": len(catalog.Names())})

	// Хранилище объявлений
	var repo port.PropertyRepositoryPort
	switch appConfig.Database.Backend {
	case "postgres":
		pool, err := postgres.NewClient(initCtx, postgres.Config{
			DatabaseURL:    appConfig.Database.URL,
			MaxConns:       appConfig.Database.MaxConns,
			ConnectTimeout: 10 * time.Second,
		})
		if err != nil {
			app.shutdown(appLogger)
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		app.pool = pool

		pgRepo, err := postgres_adapter.NewPropertyRepository(pool, appConfig.Database.UsersTable)
		if err != nil {
			app.shutdown(appLogger)
			return nil, fmt.Errorf("failed to create property repository: %w", err)
		}
		repo = pgRepo
		appLogger.Info("PostgreSQL repository initialized", nil)
	default:
		memRepo := memory.NewPropertyRepository()
		for _, raw := range appConfig.Database.SeedOwnerIDs {
			ownerID, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid owner id in SEED_OWNER_IDS %q: %w", raw, err)
			}
			memRepo.AddOwner(ownerID)
		}
		repo = memRepo
		appLogger.Warn("Using in-memory property repository", port.Fields{"seeded_owners": len(appConfig.Database.SeedOwnerIDs)})
	}

	// Объектное хранилище
	var store port.ObjectStorePort
	switch appConfig.ObjectStore.Backend {
	case "s3":
		s3Config := objectstore.Config{
			Bucket:          appConfig.ObjectStore.Bucket,
			Region:          appConfig.ObjectStore.Region,
			Endpoint:        appConfig.ObjectStore.Endpoint,
			AccessKeyID:     appConfig.ObjectStore.AccessKeyID,
			SecretAccessKey: appConfig.ObjectStore.SecretAccessKey,
			UsePathStyle:    appConfig.ObjectStore.UsePathStyle,
			PublicBaseURL:   appConfig.ObjectStore.PublicBaseURL,
		}
		s3Client, err := objectstore.NewS3Client(initCtx, s3Config)
		if err != nil {
			app.shutdown(appLogger)
			return nil, fmt.Errorf("failed to create s3 client: %w", err)
		}
		resolver := objectstore.NewSourceResolver(
			objectstore.NewFetchClient(appConfig.ObjectStore.FetchTimeout, appConfig.ObjectStore.FetchAllowPrivate),
			appConfig.ObjectStore.MaxImageBytes,
		)
		s3Store, err := objectstore.NewS3Store(s3Client, resolver, s3Config.Bucket, s3Config.PublicBaseURL)
		if err != nil {
			app.shutdown(appLogger)
			return nil, fmt.Errorf("failed to create s3 object store: %w", err)
		}
		store = s3Store
		appLogger.Info("S3 object store initialized", port.Fields{"bucket": s3Config.Bucket, "endpoint": s3Config.Endpoint})
	default:
		baseURL := appConfig.ObjectStore.PublicBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:" + appConfig.Rest.PORT + "/objects"
		}
		store = memory.NewObjectStore(baseURL)
		appLogger.Warn("Using in-memory object store", port.Fields{"base_url": baseURL})
	}

	// Кэш чтения
	app.cache = cache.NewPropertyCache(cache.Config{
		MaxSize:       appConfig.Cache.MaxSize,
		LocalTTL:      appConfig.Cache.LocalTTL,
		TTL:           appConfig.Cache.TTL,
		MemcacheHosts: appConfig.Cache.MemcacheHosts,
	})
	var propertyCache port.PropertyCachePort = app.cache

	// События об изменениях объявлений
	var events port.PropertyEventsPort
	if appConfig.RabbitMQ.Enabled {
		rmqLogger := rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq"}))

		connManager, err := rabbitmq_common.NewConnectionManager(rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL}, rmqLogger)
		if err != nil {
			app.shutdown(appLogger)
			return nil, fmt.Errorf("failed to create RabbitMQ connection manager: %w", err)
		}
		app.connManager = connManager

		producer, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
			Config:                   rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
			ExchangeName:             constants.PropertyEventsExchange,
			ExchangeType:             constants.PropertyEventsExchangeType,
			DurableExchange:          true,
			DeclareExchangeIfMissing: true,
			Logger:                   rmqLogger,
		}, connManager)
		if err != nil {
			app.shutdown(appLogger)
			return nil, fmt.Errorf("failed to create RabbitMQ publisher: %w", err)
		}
		app.eventProducer = producer

		eventsPublisher, err := rabbitmq_adapter.NewPropertyEventsPublisher(producer)
		if err != nil {
			app.shutdown(appLogger)
			return nil, fmt.Errorf("failed to create property events publisher: %w", err)
		}
		events = eventsPublisher
		appLogger.Info("RabbitMQ publisher initialized", port.Fields{"exchange": constants.PropertyEventsExchange})
	}

	// Сценарии
	validator := validation.New(catalog)
	app.compensator = usecase.NewBackgroundCompensator(store, appConfig.ObjectStore.CleanupTimeout)
	uploader := usecase.NewImageUploadCoordinator(store, app.compensator, constants.ObjectKeyRoot)

	createUC := usecase.NewCreatePropertyUseCase(repo, uploader, app.compensator, validator, events)
	updateUC := usecase.NewUpdatePropertyUseCase(repo, uploader, app.compensator, validator, propertyCache, events)
	deleteUC := usecase.NewDeletePropertyUseCase(repo, store, uploader, app.compensator, propertyCache, events)
	availabilityUC := usecase.NewUpdateAvailabilityUseCase(updateUC)
	statusUC := usecase.NewUpdateStatusUseCase(updateUC)
	getByIDUC := usecase.NewGetPropertyByIDUseCase(repo, propertyCache)
	searchUC := usecase.NewSearchPropertiesUseCase(repo, validator)
	byOwnerUC := usecase.NewGetPropertiesByOwnerUseCase(repo, validator)
	amenitiesUC := usecase.NewListAmenitiesUseCase(catalog)

	if app.connManager != nil {
		removeOwnerUC := usecase.NewRemoveOwnerPropertiesUseCase(repo, deleteUC)
		userEvents, err := rabbitmq_adapter.NewUserEventsConsumerAdapter(rabbitmq_consumer.ConsumerConfig{
			Config:        rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
			QueueName:     constants.UserDeletedQueue,
			DurableQueue:  true,
			QueueArgs:     amqp.Table{"x-dead-letter-exchange": constants.UserDeletedDLX},
			ExchangeName:  constants.UserEventsExchange,
			ExchangeType:  constants.UserEventsExchangeType,
			RoutingKeys:   []string{constants.RoutingKeyUserDeleted},
			PrefetchCount: 10,
			ConsumerTag:   appConfig.AppName,
		}, removeOwnerUC, baseLogger, app.connManager)
		if err != nil {
			app.shutdown(appLogger)
			return nil, fmt.Errorf("failed to create user events consumer: %w", err)
		}
		app.userEvents = userEvents
	}

	// HTTP
	propertyHandler := rest.NewPropertyHandler(createUC, updateUC, deleteUC, availabilityUC, statusUC, getByIDUC)
	searchHandler := rest.NewSearchHandler(searchUC, byOwnerUC, amenitiesUC)
	app.apiServer = rest.NewServer(appConfig.Rest.PORT, propertyHandler, searchHandler, baseLogger, appConfig.Rest.CORSAllowedOrigins)

	appLogger.Info("Application initialized successfully", nil)
	return app, nil
}

// Run запускает приложение и ожидает сигнала завершения
func (a *App) Run() error {
	appLogger := a.logger.WithFields(port.Fields{"component": "app"})

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer func() {
		cancelApp()
		a.shutdown(appLogger)
	}()

	if a.userEvents != nil {
		if err := a.userEvents.Start(appCtx); err != nil {
			return fmt.Errorf("failed to start user events consumer: %w", err)
		}
		appLogger.Info("User events consumer started", port.Fields{"queue": constants.UserDeletedQueue})
	}

	serverErrors := make(chan error, 1)
	go func() {
		appLogger.Info("Starting API server", port.Fields{"port": a.config.Rest.PORT})
		if err := a.apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("API server error: %w", err)
	case sig := <-quit:
		appLogger.Info("Received shutdown signal", port.Fields{"signal": sig.String()})
	}

	return nil
}

// shutdown останавливает компоненты в обратном порядке. Компоненты,
// которые не были созданы, пропускаются.
func (a *App) shutdown(appLogger port.LoggerPort) {
	appLogger.Info("Shutting down application", nil)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.apiServer != nil {
		if err := a.apiServer.Stop(ctx); err != nil {
			appLogger.Error("API server shutdown failed", err, nil)
		} else {
			appLogger.Info("API server stopped", nil)
		}
	}

	if a.userEvents != nil {
		if err := a.userEvents.Close(); err != nil {
			appLogger.Error("Failed to close user events consumer", err, nil)
		}
	}

	// Фоновые очистки изображений должны завершиться до закрытия хранилищ
	if a.compensator != nil {
		if err := a.compensator.Wait(ctx); err != nil {
			appLogger.Warn("Pending image cleanups did not finish", port.Fields{"error": err.Error()})
		}
	}

	if a.eventProducer != nil {
		if err := a.eventProducer.Close(); err != nil {
			appLogger.Error("Failed to close RabbitMQ publisher", err, nil)
		}
	}
	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			appLogger.Error("Failed to close RabbitMQ connection", err, nil)
		}
	}

	if a.cache != nil {
		a.cache.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}

	appLogger.Info("Application shut down", nil)

	if a.fluentClient != nil {
		if err := a.fluentClient.Close(); err != nil {
			log.Printf("Error closing Fluent Bit client: %v\n", err)
		}
	}
}

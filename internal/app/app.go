package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tracker-service/internal/config"
	cronpkg "tracker-service/internal/infrastructure/cron"
	infradb "tracker-service/internal/infrastructure/db"
	"tracker-service/internal/infrastructure/gateway"
	"tracker-service/internal/infrastructure/kafka"
	"tracker-service/internal/infrastructure/memory"
	"tracker-service/internal/infrastructure/postgres"
	infraredis "tracker-service/internal/infrastructure/redis"
	"tracker-service/internal/logger"
	"tracker-service/internal/service"
	"tracker-service/internal/transport/grpc"
	httptransport "tracker-service/internal/transport/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App represents the tracker service
type App struct {
	config      *config.Config
	logger      *zap.Logger
	grpcServer  *grpc.Server
	httpServer  *httptransport.Server
	scheduler   *cronpkg.Scheduler
	producer    *kafka.Producer
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
}

// New creates a new application
func New() (*App, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Logging, cfg.Service.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	log.Info("Configuration loaded", zap.String("environment", cfg.Service.Environment))

	settings, err := settingsFromConfig(&cfg.Tracker)
	if err != nil {
		return nil, err
	}

	a := &App{
		config: cfg,
		logger: log,
	}

	ctx := context.Background()
	stores, err := a.initStores(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	// Redis is optional: without it jobs are not coordinated across replicas
	var locker cronpkg.Locker = cronpkg.NewNopLocker()
	if cfg.Redis.Enabled {
		a.redisClient, err = infraredis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		locker = infraredis.NewJobLock(a.redisClient, log.Named("redis"))
		stores.Snapshots = infraredis.NewSnapshotLedger(a.redisClient, cfg.Redis.SnapshotTTL)
		log.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	publisher := service.NewNopPublisher()
	if cfg.Kafka.Enabled {
		a.producer = kafka.NewProducer(&cfg.Kafka, log.Named("kafka"))
		publisher = a.producer
		log.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.Topic))
	}

	messenger := gateway.NewClient(&cfg.Gateway, log.Named("gateway"))

	// Initialize services
	renderer := service.NewRendererService(stores, messenger, settings, log.Named("renderer"), nil)
	enrollment := service.NewEnrollmentService(stores, messenger, renderer, publisher, settings, log.Named("enrollment"), nil)
	checkins := service.NewCheckinService(stores, messenger, renderer, publisher, log.Named("checkin"), nil)
	maintenance := service.NewMaintenanceService(stores, messenger, renderer, publisher, settings, log.Named("maintenance"), nil)
	log.Info("Services initialized")

	if cfg.Scheduler.Enabled {
		a.scheduler = cronpkg.NewScheduler(maintenance, locker, cfg.Scheduler, log.Named("scheduler"))
	} else {
		log.Info("Scheduler is disabled in configuration")
	}

	handler := grpc.NewTrackerServiceHandler(enrollment, checkins, renderer, maintenance, log.Named("grpc"))
	a.grpcServer = grpc.NewServer(handler, &cfg.GRPC, log.Named("grpc"))

	if cfg.HTTP.Enabled {
		router := httptransport.NewRouter(renderer, log.Named("http"))
		a.httpServer = httptransport.NewServer(router, cfg.HTTP.Port, log.Named("http"))
	}

	return a, nil
}

func (a *App) initStores(ctx context.Context) (service.Stores, error) {
	if a.config.Store.Driver == "memory" {
		a.logger.Warn("Using in-memory store; data is lost on restart")
		store := memory.NewStore()
		return service.Stores{
			Trackers:     store.Trackers(),
			Participants: store.Participants(),
			Checkins:     store.Checkins(),
			Bans:         store.Bans(),
			Snapshots:    store.Snapshots(),
		}, nil
	}

	pool, err := infradb.NewPostgresPool(ctx, &a.config.Database)
	if err != nil {
		return service.Stores{}, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	a.dbPool = pool
	a.logger.Info("Connected to PostgreSQL", zap.String("host", a.config.Database.Host))

	if a.config.Database.Migrate {
		if err := infradb.Migrate(ctx, pool); err != nil {
			return service.Stores{}, err
		}
		a.logger.Info("Database schema applied")
	}

	return service.Stores{
		Trackers:     postgres.NewTrackerRepository(pool),
		Participants: postgres.NewParticipantRepository(pool),
		Checkins:     postgres.NewCheckinRepository(pool),
		Bans:         postgres.NewBanRepository(pool),
		Snapshots:    postgres.NewSnapshotLedger(pool),
	}, nil
}

// Run starts the application and blocks until SIGINT or SIGTERM
func (a *App) Run() error {
	defer a.logger.Sync()

	// Setup signal handling for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	if a.scheduler != nil {
		if err := a.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	go func() {
		if err := a.grpcServer.Start(); err != nil {
			a.logger.Error("gRPC server error", zap.Error(err))
			quit <- syscall.SIGTERM
		}
	}()

	if a.httpServer != nil {
		go func() {
			if err := a.httpServer.Start(); err != nil {
				a.logger.Error("HTTP server error", zap.Error(err))
				quit <- syscall.SIGTERM
			}
		}()
	}

	a.logger.Info("Service started",
		zap.String("service", a.config.Service.Name),
		zap.Int("grpc_port", a.config.GRPC.Port),
	)

	// Wait for interrupt signal
	sig := <-quit
	a.logger.Info("Shutting down", zap.String("signal", sig.String()))

	// Stop accepting work before the stores go away
	if a.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.httpServer.Stop(ctx); err != nil {
			a.logger.Error("HTTP shutdown error", zap.Error(err))
		}
		cancel()
	}
	a.grpcServer.Stop()

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	a.close()
	a.logger.Info("Server shutdown complete")
	return nil
}

func (a *App) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("Error closing Kafka producer", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("Error closing Redis client", zap.Error(err))
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
	}
}

func settingsFromConfig(cfg *config.TrackerConfig) (service.Settings, error) {
	weekday, err := cfg.Weekday()
	if err != nil {
		return service.Settings{}, err
	}

	settings := service.DefaultSettings()
	if cfg.MaxParticipants > 0 {
		settings.MaxParticipants = cfg.MaxParticipants
	}
	if cfg.MaxGracePeriodDays > 0 {
		settings.MaxGracePeriodDays = cfg.MaxGracePeriodDays
	}
	if cfg.LiveWindowDays > 0 {
		settings.LiveWindowDays = cfg.LiveWindowDays
	}
	if cfg.DisplayLimit > 0 {
		settings.DisplayLimit = cfg.DisplayLimit
	}
	settings.DefaultGracePeriodDays = cfg.DefaultGracePeriodDays
	settings.SnapshotOnDaily = cfg.SnapshotOnDaily
	settings.SnapshotWeekday = weekday
	return settings, nil
}

// Command server runs the course planner REST API.
//
// Storage is in-memory by default; set STORAGE_DRIVER=postgres and
// DATABASE_URL to persist to PostgreSQL. With REDIS_ENABLED=true commands are
// serialized across replicas by a Redis lock and domain events fan out over
// Redis pub/sub.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/horses-for-courses/planner/config"
	"github.com/horses-for-courses/planner/internal/application/command"
	"github.com/horses-for-courses/planner/internal/application/query"
	"github.com/horses-for-courses/planner/internal/domain/coach"
	"github.com/horses-for-courses/planner/internal/domain/course"
	"github.com/horses-for-courses/planner/internal/infrastructure/locking"
	"github.com/horses-for-courses/planner/internal/infrastructure/messaging"
	"github.com/horses-for-courses/planner/internal/infrastructure/persistence/memory"
	"github.com/horses-for-courses/planner/internal/infrastructure/persistence/postgres"
	"github.com/horses-for-courses/planner/internal/infrastructure/persistence/redis"
	httpserver "github.com/horses-for-courses/planner/internal/interface/http"
	"github.com/horses-for-courses/planner/internal/interface/http/handlers"
	"github.com/horses-for-courses/planner/pkg/logger"
	"github.com/horses-for-courses/planner/pkg/retry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// stores bundles the repositories and the unit of work for one driver.
type stores struct {
	courses course.Repository
	coaches coach.Repository
	tx      command.Transactor
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting planner",
		zap.String("env", string(cfg.App.Env)),
		zap.String("version", cfg.App.Version),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("redis", cfg.Redis.Enabled),
	)

	health := handlers.NewHealthChecker(cfg.App.Version)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	mem := memory.NewStore()
	st := stores{
		courses: mem.Courses,
		coaches: mem.Coaches,
		tx:      mem,
	}

	if cfg.UsesPostgres() {
		conn, err := connectPostgres(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database connection...")
			conn.Close()
		}()

		st = stores{
			courses: postgres.NewCourseRepository(conn),
			coaches: postgres.NewCoachRepository(conn),
			tx:      postgres.NewTransactor(conn),
		}
		health.AddCheck("postgres", handlers.PingCheck(conn))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. LOCKING AND EVENTS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log

	var (
		locker command.Locker = locking.NewKeyedMutex()
		bus    messaging.EventBus
	)

	if cfg.Redis.Enabled {
		client, err := connectRedis(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing redis connection...")
			_ = client.Close()
		}()
		health.AddCheck("redis", handlers.PingCheck(client))

		lockCfg := redis.DefaultLockerConfig()
		lockCfg.TTL = cfg.Redis.LockTTL
		lockCfg.Logger = log
		locker = redis.NewLocker(client, lockCfg)

		bus, err = messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         redis.NewPubSub(client),
			ChannelName:    cfg.Redis.Channel,
			LocalBusConfig: busConfig,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("failed to start redis event bus: %w", err)
		}
	} else {
		bus = messaging.NewInMemoryEventBus(busConfig)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	if err := bus.SubscribeAll(messaging.Chain(
		messaging.AuditHandler(log),
		messaging.LoggingMiddleware(log),
	)); err != nil {
		return fmt.Errorf("failed to register audit handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	commands := command.NewHandlers(command.Dependencies{
		Courses: st.courses,
		Coaches: st.coaches,
		Locker:  locker,
		Tx:      st.tx,
		Events:  bus,
		Logger:  log,
	})
	queries := query.NewHandlers(st.courses, st.coaches)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	if cfg.IsDevelopment() {
		httpCfg.Mode = gin.DebugMode
	}

	server := httpserver.NewServer(httpCfg, httpserver.Dependencies{
		Commands: commands,
		Queries:  queries,
		Health:   health,
		Logger:   log,
	})
	serverErr := server.StartAsync()

	log.Info("planner is running", zap.String("address", server.Address()))

	// ─────────────────────────────────────────────────────────────────────────
	// 7. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err, ok := <-serverErr:
		if ok && err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("http shutdown failed", zap.Error(err))
		return err
	}

	log.Info("planner stopped")
	return nil
}

func connectPostgres(ctx context.Context, cfg *config.Config, log *zap.Logger) (*postgres.Connection, error) {
	opts := postgres.DefaultPoolOptions()
	opts.MaxConns = cfg.Database.MaxConns
	opts.MinConns = cfg.Database.MinConns
	opts.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	opts.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	log.Info("connecting to database...")
	var conn *postgres.Connection
	err := retry.ConnectRetrier().Do(ctx, func(ctx context.Context) error {
		var err error
		conn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL, opts)
		if err != nil {
			log.Warn("database not reachable yet", zap.Error(err))
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established")

	if !cfg.Database.Migrate {
		return conn, nil
	}

	log.Info("running database migrations...")
	migrator, err := postgres.NewMigrator(conn, log)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare migrations: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	if err := migrator.Up(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return conn, nil
}

func connectRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	redisCfg := redis.DefaultConfig()
	redisCfg.Addr = cfg.Redis.Addr
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisCfg.PoolSize = cfg.Redis.PoolSize

	log.Info("connecting to Redis...", zap.String("addr", redisCfg.Addr))
	var client *redis.Client
	err := retry.ConnectRetrier().Do(ctx, func(ctx context.Context) error {
		var err error
		client, err = redis.NewClient(ctx, redisCfg)
		if err != nil {
			log.Warn("redis not reachable yet", zap.Error(err))
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("Redis connection established")
	return client, nil
}

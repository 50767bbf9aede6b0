package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/attendance/internal/attendance"
	"github.com/Nixie-Tech-LLC/attendance/internal/cache"
	"github.com/Nixie-Tech-LLC/attendance/internal/config"
	"github.com/Nixie-Tech-LLC/attendance/internal/db"
	"github.com/Nixie-Tech-LLC/attendance/internal/jobs"
	"github.com/Nixie-Tech-LLC/attendance/internal/metrics"
	"github.com/Nixie-Tech-LLC/attendance/internal/notify"
	"github.com/Nixie-Tech-LLC/attendance/internal/seed"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)
	metrics.Init()

	health := map[string]HealthCheck{}

	store, conn := initStore(cfg)
	if conn != nil {
		defer conn.Close()
		health["database"] = conn.PingContext
	}

	statsCache := cache.StatsCache(cache.NopStatsCache{})
	if cfg.UseRedis() {
		rdb := cache.NewRedisClient(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		defer rdb.Close()
		statsCache = cache.NewRedisStatsCache(rdb, cfg.StatsCacheTTL)
		health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("address", cfg.RedisAddress).Dur("ttl", cfg.StatsCacheTTL).Msg("stats cache enabled")
	}

	notifier := notify.Notifier(notify.NopNotifier{})
	if cfg.UseMQTT() {
		mqttNotifier, err := notify.NewMQTTNotifier(cfg.MQTTBrokerURL, cfg.MQTTClientID)
		if err != nil {
			log.Error().Err(err).Msg("MQTT unavailable, attendance events will not be published")
		} else {
			notifier = mqttNotifier
		}
	}
	defer notifier.Close()

	service := attendance.NewService(store, statsCache, notifier, cfg.DisplayLocation)

	scheduler := jobs.NewScheduler(cfg.DisplayLocation, service)
	if err := scheduler.ScheduleStatsRefresh(cfg.StatsRefreshCron); err != nil {
		log.Fatal().Err(err).Msg("invalid STATS_REFRESH_CRON")
	}
	scheduler.Start()

	// set up gin router
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, Deps{
		Config:  cfg,
		Store:   store,
		Service: service,
		Storage: InitStorage(cfg),
		Health:  health,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.ServerAddress).Str("env", cfg.Environment).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	scheduler.Stop(ctx)
	log.Info().Msg("server stopped")
}

// initStore connects to PostgreSQL when DATABASE_URL is set, otherwise it
// serves from memory, optionally seeded from SEED_FILE.
func initStore(cfg *config.Config) (db.Store, *sqlx.DB) {
	if cfg.UseDatabase() {
		conn, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("db init")
		}
		// run pending migrations
		if err := db.RunMigrations(conn, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("db migrate")
		}
		return db.NewStore(conn), conn
	}

	log.Warn().Msg("DATABASE_URL not set, using in-memory store")
	store := db.NewMemoryStore()
	if cfg.SeedFile != "" {
		fixture, err := seed.Load(cfg.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("failed to load seed data")
		}
		if _, err := fixture.Apply(context.Background(), store); err != nil {
			log.Fatal().Err(err).Msg("failed to apply seed data")
		}
	}
	return store, nil
}

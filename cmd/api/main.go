package main

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

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-dashboard/internal/cache"
	"github.com/BruksfildServices01/barber-dashboard/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-dashboard/internal/db"
	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/infra/backend"
	"github.com/BruksfildServices01/barber-dashboard/internal/logger"
	"github.com/BruksfildServices01/barber-dashboard/internal/metrics"
	"github.com/BruksfildServices01/barber-dashboard/internal/routes"
	"github.com/BruksfildServices01/barber-dashboard/internal/timezone"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	hours, err := schedule.ParseBusinessHours(cfg.BusinessOpen, cfg.BusinessClose, cfg.SlotMinutes)
	if err != nil {
		return fmt.Errorf("business hours: %w", err)
	}
	if !timezone.IsValid(cfg.Timezone) {
		return fmt.Errorf("unknown TIMEZONE %q", cfg.Timezone)
	}

	// --------------------------------------------------
	// Metrics
	// --------------------------------------------------
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New("barber_dashboard", reg)

	// --------------------------------------------------
	// Storage
	// --------------------------------------------------
	cacheStore, sessionStore, closeRedis, err := stores(cfg, zl)
	if err != nil {
		return err
	}
	defer closeRedis()

	var db *gorm.DB
	if cfg.DBUrl != "" {
		if db, err = dbpkg.NewDB(cfg.DBUrl); err != nil {
			return err
		}
	} else {
		zl.Warn("DATABASE_URL not set, audit trail goes to the log only")
	}

	// --------------------------------------------------
	// Backend
	// --------------------------------------------------
	be := backend.New(backend.Options{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.RequestTimeout,
		Logger:  zl,
		Metrics: m,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	shutdown := routes.RegisterRoutes(r, routes.Infra{
		Config:   cfg,
		DB:       db,
		Backend:  be,
		Cache:    cacheStore,
		Sessions: sessionStore,
		Clock:    timezone.NewClock(cfg.Timezone),
		Hours:    hours,
		Log:      zl,
		Metrics:  m,
		Gatherer: reg,
	})
	defer shutdown()

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server running", zap.String("addr", cfg.Addr()), zap.String("backend", cfg.BackendURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	zl.Info("server is shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// stores returns the agenda cache and the session store: two Redis databases
// when REDIS_ADDR is set, process memory otherwise.
func stores(cfg *config.Config, zl *zap.Logger) (cache.Store, cache.Store, func(), error) {
	if cfg.RedisAddr == "" {
		zl.Warn("REDIS_ADDR not set, cache and sessions are kept in memory")
		return cache.NewMemoryStore(), cache.NewMemoryStore(), func() {}, nil
	}

	cacheClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisCacheDB,
	})
	authClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisAuthDB,
	})
	closeAll := func() {
		_ = cacheClient.Close()
		_ = authClient.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for name, c := range map[string]*redis.Client{"cache": cacheClient, "auth": authClient} {
		if err := c.Ping(ctx).Err(); err != nil {
			closeAll()
			return nil, nil, nil, fmt.Errorf("redis %s: %w", name, err)
		}
	}

	return cache.NewRedisStore(cacheClient), cache.NewRedisStore(authClient), closeAll, nil
}

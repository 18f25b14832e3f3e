package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ratelock/internal/adapters"
	"ratelock/internal/adapters/bolt"
	"ratelock/internal/adapters/cache"
	"ratelock/internal/adapters/httpclient"
	"ratelock/internal/adapters/postgres"
	"ratelock/internal/adapters/redisstore"
	"ratelock/internal/api"
	"ratelock/internal/config"
	"ratelock/internal/conversion"
	convhandler "ratelock/internal/conversion/handler"
	"ratelock/internal/platform/db"
	httpserver "ratelock/internal/platform/http"
	"ratelock/internal/platform/metrics"
	"ratelock/internal/rate"
	ratehandler "ratelock/internal/rate/handler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// stores bundles the persistence backends selected by storage.driver.
// purger is nil for backends with native expiry.
type stores struct {
	snapshots adapters.SnapshotStore
	audits    adapters.AuditStore
	purger    adapters.ExpiredPurger
	close     func()
}

// Run wires the application components, starts HTTP server and scheduler
func Run() error {
	appCfg, err := config.Init()
	if err != nil {
		return err
	}
	setupLogger(appCfg.Logging)
	logrus.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bounded context for startup operations (migrations, store connect)
	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	st, err := openStores(startupCtx, appCfg)
	if err != nil {
		logrus.WithError(err).WithField("driver", appCfg.Storage.Driver).Error("Error opening storage")
		return err
	}
	defer st.close()
	logrus.WithField("driver", appCfg.Storage.Driver).Info("✅ Storage ready")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// Base HTTP client (configurable timeout)
	httpTimeout := time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second
	if httpTimeout <= 0 {
		httpTimeout = 30 * time.Second
	}
	feedClient := httpclient.NewRateFeedClient(&http.Client{Timeout: httpTimeout}, appCfg.RateFeed.URL)

	syncer := rate.NewSyncer(feedClient, st.snapshots, rate.SyncConfig{
		PivotCurrency:  appCfg.RateFeed.PivotCurrency,
		MaxAttempts:    appCfg.Sync.MaxAttempts,
		BackoffBase:    appCfg.Sync.BackoffBase(),
		AttemptTimeout: httpTimeout,
		Retention:      appCfg.Sync.Retention(),
	}, appMetrics)

	if appCfg.Sync.Enabled {
		scheduler := rate.NewScheduler(syncer, st.purger, appMetrics, rate.SchedulerConfig{
			SyncInterval:    appCfg.Sync.Interval(),
			PurgeInterval:   appCfg.Sync.PurgeInterval(),
			StartupAttempts: appCfg.Sync.StartupAttempts,
			StartupDelay:    appCfg.Sync.StartupDelay(),
		})
		// Ensure scheduler stops before storage closes
		defer func() {
			if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
				logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
			}
		}()
		if startErr := scheduler.Start(ctx); startErr != nil {
			logrus.WithError(startErr).Error("Failed to start scheduler")
			return startErr
		}
		logrus.Info("✅ Scheduler activation successful")
	} else {
		logrus.Warn("Scheduled rate sync disabled, snapshots only change via POST /v1/rates/sync")
	}

	auditCache, err := cache.NewAuditCache(appCfg.Cache.MaxItems)
	if err != nil {
		logrus.WithError(err).Error("Failed to create audit cache")
		return err
	}
	defer auditCache.Close()

	engine := conversion.NewEngine(st.snapshots, st.audits, auditCache, appMetrics, appCfg.ServiceVersion)

	syncLimiter, err := api.NewSyncLimiter(appCfg.RateLimit.Sync)
	if err != nil {
		logrus.WithError(err).Error("Invalid sync rate limit")
		return err
	}

	router := api.NewRouter(
		convhandler.NewConversionHandler(engine),
		ratehandler.NewRateHandler(syncer),
		syncLimiter,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	)

	logrus.Info("Starting http server")
	// Block until context is canceled, then perform graceful shutdown.
	if serverErr := httpserver.Start(ctx, appCfg.HTTPServer, router); serverErr != nil {
		// Cancel the root context to stop scheduler and other in-flight work
		stop()
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}

func setupLogger(cfg config.Logging) {
	logrus.SetOutput(os.Stdout)
	if parsedLvl, parseErr := logrus.ParseLevel(cfg.Level); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func openStores(ctx context.Context, cfg *config.AppConfig) (stores, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		pool, err := db.Connect(ctx, cfg.DbServer)
		if err != nil {
			return stores{}, err
		}
		snapshotRepo := postgres.NewSnapshotRepository(pool)
		return stores{
			snapshots: snapshotRepo,
			audits:    postgres.NewAuditRepository(pool),
			purger:    snapshotRepo,
			close:     pool.Close,
		}, nil

	case config.StorageDriverBolt:
		boltStore, err := bolt.Open(cfg.Storage.BoltPath)
		if err != nil {
			return stores{}, err
		}
		snapshots := boltStore.Snapshots()
		return stores{
			snapshots: snapshots,
			audits:    boltStore.Audit(),
			purger:    snapshots,
			close: func() {
				if closeErr := boltStore.Close(); closeErr != nil {
					logrus.WithError(closeErr).Error("Failed to close bolt store")
				}
			},
		}, nil

	case config.StorageDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Storage.Redis.Addr,
			DB:   cfg.Storage.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return stores{}, fmt.Errorf("redis ping: %w", err)
		}
		return stores{
			snapshots: redisstore.NewSnapshotStore(client, cfg.Storage.Redis.KeyPrefix),
			audits:    redisstore.NewAuditStore(client, cfg.Storage.Redis.KeyPrefix),
			close: func() {
				if closeErr := client.Close(); closeErr != nil {
					logrus.WithError(closeErr).Error("Failed to close redis client")
				}
			},
		}, nil
	}
	return stores{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

package rate

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"ratelock/internal/adapters"
	"ratelock/internal/platform/metrics"
)

const (
	defaultSyncInterval    = time.Hour
	defaultPurgeInterval   = 24 * time.Hour
	defaultStartupAttempts = 10
	defaultStartupDelay    = 30 * time.Second
)

type snapshotSyncer interface {
	Sync(ctx context.Context) (SyncResult, error)
}

type SchedulerConfig struct {
	SyncInterval    time.Duration
	PurgeInterval   time.Duration
	StartupAttempts int
	StartupDelay    time.Duration
}

// Scheduler runs the periodic sync, an initial sync on start, and, for stores
// without native expiry, a periodic purge of expired snapshots.
type Scheduler struct {
	syncer  snapshotSyncer
	purger  adapters.ExpiredPurger
	metrics *metrics.Metrics
	cfg     SchedulerConfig
	now     func() time.Time
	// -----
	mu    sync.Mutex
	sched gocron.Scheduler
}

func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sched = scheduler
	s.mu.Unlock()

	syncJob := func(jobCtx context.Context) {
		execID := uuid.NewString()
		result, syncErr := s.syncer.Sync(jobCtx)
		if syncErr != nil {
			logrus.WithError(syncErr).WithField("exec_id", execID).Error("Scheduled rate sync failed")
			return
		}
		logrus.WithFields(logrus.Fields{"exec_id": execID, "snapshot_id": result.SnapshotID, "created": result.Created}).Info("Scheduled rate sync completed")
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.cfg.SyncInterval),
		gocron.NewTask(syncJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	if s.purger != nil {
		_, err = scheduler.NewJob(
			gocron.DurationJob(s.cfg.PurgeInterval),
			gocron.NewTask(s.purgeExpired),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return err
		}
	}

	scheduler.Start()

	go s.runStartupSync(ctx)

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

// runStartupSync makes sure fresh rates exist soon after start instead of
// waiting a full sync interval. Each failed attempt waits StartupDelay.
func (s *Scheduler) runStartupSync(ctx context.Context) {
	attempt := 0
	backoff := retry.WithMaxRetries(uint64(s.cfg.StartupAttempts-1), retry.NewConstant(s.cfg.StartupDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		result, err := s.syncer.Sync(ctx)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"attempt": attempt, "max_attempts": s.cfg.StartupAttempts}).Warn("Initial rate sync attempt failed")
			return retry.RetryableError(err)
		}
		logrus.WithField("snapshot_id", result.SnapshotID).Info("Initial rate sync completed")
		return nil
	})
	if err != nil {
		logrus.WithError(err).Error("All initial sync attempts failed, relying on the periodic schedule")
	}
}

func (s *Scheduler) purgeExpired(jobCtx context.Context) {
	n, err := s.purger.PurgeExpired(jobCtx, s.now().UTC())
	if err != nil {
		logrus.WithError(err).Error("Failed to purge expired rate snapshots")
		return
	}
	s.metrics.ObservePurged(n)
	if n > 0 {
		logrus.Infof("%d expired rate snapshots purged", n)
	}
}

func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched == nil {
		return nil
	}
	err := s.sched.Shutdown()
	s.sched = nil
	return err
}

func NewScheduler(syncer snapshotSyncer, purger adapters.ExpiredPurger, m *metrics.Metrics, cfg SchedulerConfig) *Scheduler {
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = defaultSyncInterval
	}
	if cfg.PurgeInterval <= 0 {
		cfg.PurgeInterval = defaultPurgeInterval
	}
	if cfg.StartupAttempts <= 0 {
		cfg.StartupAttempts = defaultStartupAttempts
	}
	if cfg.StartupDelay <= 0 {
		cfg.StartupDelay = defaultStartupDelay
	}
	return &Scheduler{syncer: syncer, purger: purger, metrics: m, cfg: cfg, now: time.Now}
}

package rate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"ratelock/internal/adapters"
	"ratelock/internal/domain"
	"ratelock/internal/platform/metrics"
)

const (
	defaultPivotCurrency  = "EUR"
	defaultMaxAttempts    = 3
	defaultBackoffBase    = time.Second
	defaultAttemptTimeout = 30 * time.Second
)

type SyncConfig struct {
	PivotCurrency  string
	MaxAttempts    int
	BackoffBase    time.Duration
	AttemptTimeout time.Duration
	// Retention is added to the capture time to get the snapshot expiry.
	// Zero disables expiry.
	Retention time.Duration
}

type SyncResult struct {
	SnapshotID string
	Created    bool
	RateCount  int
	FetchedAt  time.Time
}

// Syncer captures rate snapshots from the feed into the snapshot store.
// It holds no locks: concurrent Sync calls are made safe by the time-derived
// snapshot id and the store's write-once Put.
type Syncer struct {
	feed    adapters.RateFeedClient
	store   adapters.SnapshotStore
	cfg     SyncConfig
	metrics *metrics.Metrics

	now     func() time.Time
	backoff func() retry.Backoff
}

func (s *Syncer) Sync(ctx context.Context) (SyncResult, error) {
	capturedAt := s.now().UTC()
	snapshotID := SnapshotIDAt(capturedAt)
	log := logrus.WithField("snapshot_id", snapshotID)
	log.Info("Starting rate synchronization")

	existing, err := s.store.Get(ctx, snapshotID)
	switch {
	case err == nil:
		log.Info("Snapshot already exists, synchronization not needed")
		s.metrics.ObserveSync(metrics.SyncDuplicate)
		return SyncResult{SnapshotID: snapshotID, RateCount: len(existing.Rates), FetchedAt: existing.FetchedAt}, nil
	case errors.Is(err, domain.ErrSnapshotNotFound):
	default:
		// Put is write-once, so a failed existence check can't produce a duplicate.
		log.WithError(err).Warn("Snapshot existence check failed, continuing")
	}

	payload, err := s.fetchWithRetry(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to fetch rates")
		s.metrics.ObserveSync(metrics.SyncFailed)
		return SyncResult{}, err
	}

	rates, err := ValidatePayload(payload, s.cfg.PivotCurrency)
	if err != nil {
		log.WithError(err).Error("Rates data validation failed")
		s.metrics.ObserveSync(metrics.SyncFailed)
		return SyncResult{}, domain.NewStageError(domain.StageValidate, domain.ErrUpstreamData, err)
	}

	snapshot := domain.RateSnapshot{
		SnapshotID:   snapshotID,
		BaseCurrency: s.cfg.PivotCurrency,
		Rates:        rates,
		FeedDate:     payload.Date,
		FetchedAt:    capturedAt,
	}
	if s.cfg.Retention > 0 {
		expiresAt := capturedAt.Add(s.cfg.Retention)
		snapshot.ExpiresAt = &expiresAt
	}

	if err = s.store.Put(ctx, snapshot); err != nil {
		if errors.Is(err, domain.ErrSnapshotExists) {
			log.Info("Snapshot was stored by a concurrent sync")
			s.metrics.ObserveSync(metrics.SyncDuplicate)
			return SyncResult{SnapshotID: snapshotID, RateCount: len(rates), FetchedAt: capturedAt}, nil
		}
		if errors.Is(err, domain.ErrSnapshotExpired) {
			log.WithError(err).WithField("retention", s.cfg.Retention).Error("Snapshot expired before it was stored")
		} else {
			log.WithError(err).Error("Failed to store rate snapshot")
		}
		s.metrics.ObserveSync(metrics.SyncFailed)
		return SyncResult{}, domain.NewStageError(domain.StagePersist, domain.ErrPersistence, err)
	}

	log.WithField("rates", len(rates)).Info("Rate synchronization completed")
	s.metrics.ObserveSync(metrics.SyncCreated)
	s.metrics.ObserveSnapshotStored(len(rates))
	return SyncResult{SnapshotID: snapshotID, Created: true, RateCount: len(rates), FetchedAt: capturedAt}, nil
}

// fetchWithRetry retries transport-class failures with exponential backoff.
// An unparseable payload stops immediately without using the retry budget.
func (s *Syncer) fetchWithRetry(ctx context.Context) (domain.FeedPayload, error) {
	var (
		payload domain.FeedPayload
		attempt int
	)

	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
		defer cancel()

		fetched, fetchErr := s.feed.FetchLatest(attemptCtx)
		if fetchErr == nil {
			s.metrics.ObserveFetchAttempt("success")
			payload = fetched
			return nil
		}

		log := logrus.WithError(fetchErr).WithFields(logrus.Fields{"attempt": attempt, "max_attempts": s.cfg.MaxAttempts})
		if errors.Is(fetchErr, domain.ErrUpstreamData) {
			s.metrics.ObserveFetchAttempt("invalid")
			log.Error("Rate feed returned an unparseable payload, not retrying")
			return fetchErr
		}
		s.metrics.ObserveFetchAttempt("error")
		log.Warn("Rate feed fetch attempt failed")
		return retry.RetryableError(fetchErr)
	})
	if err == nil {
		return payload, nil
	}
	if errors.Is(err, domain.ErrUpstreamData) {
		return domain.FeedPayload{}, domain.NewStageError(domain.StageFetch, domain.ErrUpstreamData, err)
	}
	return domain.FeedPayload{}, domain.NewStageError(domain.StageFetch, domain.ErrUpstreamFetch,
		fmt.Errorf("giving up after %d attempt(s): %w", attempt, err))
}

// LatestSnapshot returns the stored snapshot with the greatest id, or
// domain.ErrDataUnavailable when the store holds none.
func (s *Syncer) LatestSnapshot(ctx context.Context) (domain.RateSnapshot, error) {
	return LatestSnapshot(ctx, s.store)
}

// LatestSnapshot scans store and picks the lexicographically greatest snapshot
// id, which is the most recent capture. The read is not linearized against a
// concurrent Put.
func LatestSnapshot(ctx context.Context, store adapters.SnapshotStore) (domain.RateSnapshot, error) {
	snapshots, err := store.Scan(ctx)
	if err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("failed to scan rate snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return domain.RateSnapshot{}, domain.ErrDataUnavailable
	}
	return slices.MaxFunc(snapshots, func(a, b domain.RateSnapshot) int {
		return strings.Compare(a.SnapshotID, b.SnapshotID)
	}), nil
}

func newFetchBackoff(base time.Duration, maxAttempts int) retry.Backoff {
	return retry.WithMaxRetries(uint64(maxAttempts-1), retry.NewExponential(base))
}

func NewSyncer(feed adapters.RateFeedClient, store adapters.SnapshotStore, cfg SyncConfig, m *metrics.Metrics) *Syncer {
	if cfg.PivotCurrency == "" {
		cfg.PivotCurrency = defaultPivotCurrency
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = defaultAttemptTimeout
	}

	s := &Syncer{feed: feed, store: store, cfg: cfg, metrics: m, now: time.Now}
	s.backoff = func() retry.Backoff { return newFetchBackoff(s.cfg.BackoffBase, s.cfg.MaxAttempts) }
	return s
}

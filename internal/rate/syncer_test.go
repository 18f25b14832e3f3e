package rate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ratelock/internal/adapters"
	"ratelock/internal/domain"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Testify mocks ---

type MockRateFeedClient struct{ mock.Mock }

func (m *MockRateFeedClient) FetchLatest(ctx context.Context) (domain.FeedPayload, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).(domain.FeedPayload)
	return p, args.Error(1)
}

type MockSnapshotStore struct{ mock.Mock }

func (m *MockSnapshotStore) Get(ctx context.Context, snapshotID string) (domain.RateSnapshot, error) {
	args := m.Called(ctx, snapshotID)
	s, _ := args.Get(0).(domain.RateSnapshot)
	return s, args.Error(1)
}

func (m *MockSnapshotStore) Put(ctx context.Context, snapshot domain.RateSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotStore) Scan(ctx context.Context) ([]domain.RateSnapshot, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]domain.RateSnapshot)
	return s, args.Error(1)
}

// memorySnapshotStore is a write-once in-memory store used where the test
// cares about resulting state rather than call expectations.
type memorySnapshotStore struct {
	mu    sync.Mutex
	items map[string]domain.RateSnapshot
}

func newMemorySnapshotStore() *memorySnapshotStore {
	return &memorySnapshotStore{items: make(map[string]domain.RateSnapshot)}
}

func (s *memorySnapshotStore) Get(_ context.Context, snapshotID string) (domain.RateSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.items[snapshotID]
	if !ok {
		return domain.RateSnapshot{}, domain.ErrSnapshotNotFound
	}
	return snap, nil
}

func (s *memorySnapshotStore) Put(_ context.Context, snapshot domain.RateSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[snapshot.SnapshotID]; ok {
		return domain.ErrSnapshotExists
	}
	s.items[snapshot.SnapshotID] = snapshot
	return nil
}

func (s *memorySnapshotStore) Scan(_ context.Context) ([]domain.RateSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RateSnapshot, 0, len(s.items))
	for _, snap := range s.items {
		out = append(out, snap)
	}
	return out, nil
}

var fixedNow = time.Date(2025, 1, 10, 15, 4, 5, 123456000, time.UTC)

func eurPayload() domain.FeedPayload {
	return domain.FeedPayload{
		Base:  "EUR",
		Date:  "2025-01-10",
		Rates: rawRates(map[string]string{"USD": "1.1", "GBP": "0.85"}),
	}
}

func newTestSyncer(feed *MockRateFeedClient, store adapters.SnapshotStore) *Syncer {
	s := NewSyncer(feed, store, SyncConfig{
		PivotCurrency:  "EUR",
		MaxAttempts:    3,
		BackoffBase:    time.Millisecond,
		AttemptTimeout: time.Second,
		Retention:      30 * 24 * time.Hour,
	}, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

// --- Sync ---

func TestSyncer_Sync_Success_StoresSnapshot(t *testing.T) {
	feed := new(MockRateFeedClient)
	store := new(MockSnapshotStore)
	s := newTestSyncer(feed, store)
	wantID := "20250110-150405.123456UTC"

	store.On("Get", mock.Anything, wantID).Return(domain.RateSnapshot{}, domain.ErrSnapshotNotFound).Once()
	feed.On("FetchLatest", mock.Anything).Return(eurPayload(), nil).Once()
	store.On("Put", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		snap := args.Get(1).(domain.RateSnapshot)
		require.Equal(t, wantID, snap.SnapshotID)
		require.Equal(t, "EUR", snap.BaseCurrency)
		require.Equal(t, "2025-01-10", snap.FeedDate)
		require.True(t, snap.FetchedAt.Equal(fixedNow))
		require.NotNil(t, snap.ExpiresAt)
		require.True(t, snap.ExpiresAt.Equal(fixedNow.Add(30*24*time.Hour)))
		require.Len(t, snap.Rates, 3)
		require.True(t, snap.Rates["EUR"].Equal(decimal.NewFromInt(1)))
		require.Equal(t, "1.1", snap.Rates["USD"].String())
	}).Once()

	res, err := s.Sync(context.Background())

	require.NoError(t, err)
	require.Equal(t, wantID, res.SnapshotID)
	require.True(t, res.Created)
	require.Equal(t, 3, res.RateCount)
	feed.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestSyncer_Sync_NoRetention_NoExpiry(t *testing.T) {
	feed := new(MockRateFeedClient)
	store := newMemorySnapshotStore()
	s := newTestSyncer(feed, store)
	s.cfg.Retention = 0

	feed.On("FetchLatest", mock.Anything).Return(eurPayload(), nil).Once()

	res, err := s.Sync(context.Background())

	require.NoError(t, err)
	snap, err := store.Get(context.Background(), res.SnapshotID)
	require.NoError(t, err)
	require.Nil(t, snap.ExpiresAt)
}

func TestSyncer_Sync_ExistingSnapshot_ShortCircuits(t *testing.T) {
	feed := new(MockRateFeedClient)
	store := new(MockSnapshotStore)
	s := newTestSyncer(feed, store)
	wantID := SnapshotIDAt(fixedNow)

	existing := domain.RateSnapshot{SnapshotID: wantID, Rates: map[string]decimal.Decimal{"EUR": decimal.NewFromInt(1)}, FetchedAt: fixedNow}
	store.On("Get", mock.Anything, wantID).Return(existing, nil).Once()

	res, err := s.Sync(context.Background())

	require.NoError(t, err)
	require.Equal(t, wantID, res.SnapshotID)
	require.False(t, res.Created)
	require.Equal(t, 1, res.RateCount)
	feed.AssertNotCalled(t, "FetchLatest", mock.Anything)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestSyncer_Sync_TwiceInSameBucket_StoresOnce(t *testing.T) {
	feed := new(MockRateFeedClient)
	store := newMemorySnapshotStore()
	s := newTestSyncer(feed, store)

	feed.On("FetchLatest", mock.Anything).Return(eurPayload(), nil).Once()

	first, err := s.Sync(context.Background())
	require.NoError(t, err)
	second, err := s.Sync(context.Background())
	require.NoError(t, err)

	require.Equal(t, first.SnapshotID, second.SnapshotID)
	require.True(t, first.Created)
	require.False(t, second.Created)
	all, err := store.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	feed.AssertNumberOfCalls(t, "FetchLatest", 1)
}

func TestSyncer_Sync_ConcurrentTriggers_StoreOneSnapshot(t *testing.T) {
	feed := new(MockRateFeedClient)
	store := newMemorySnapshotStore()
	s := newTestSyncer(feed, store)

	feed.On("FetchLatest", mock.Anything).Return(eurPayload(), nil)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Sync(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	all, err := store.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestSyncer_Sync_AlwaysTimesOut_ExactlyMaxAttempts(t *testing.T) {
	feed := new(MockRateFeedClient)
	store := new(MockSnapshotStore)
	s := newTestSyncer(feed, store)
	s.cfg.AttemptTimeout = 10 * time.Millisecond

	var waits []time.Duration
	s.backoff = func() retry.Backoff {
		inner := newFetchBackoff(time.Millisecond, 3)
		return retry.BackoffFunc(func() (time.Duration, bool) {
			d, stop := inner.Next()
			if !stop {
				waits = append(waits, d)
			}
			return d, stop
		})
	}

	store.On("Get", mock.Anything, mock.Anything).Return(domain.RateSnapshot{}, domain.ErrSnapshotNotFound).Once()
	feed.On("FetchLatest", mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(domain.FeedPayload{}, domain.ErrUpstreamFetch)

	_, err := s.Sync(context.Background())

	require.ErrorIs(t, err, domain.ErrUpstreamFetch)
	require.Equal(t, domain.StageFetch, domain.StageOf(err))
	feed.AssertNumberOfCalls(t, "FetchLatest", 3)
	require.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, waits)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestSyncer_Sync_TransientFailureThenSuccess(t *testing.T) {
	feed := new(MockRateFeedClient)
	store := newMemorySnapshotStore()
	s := newTestSyncer(feed, store)

	feed.On("FetchLatest", mock.Anything).Return(domain.FeedPayload{}, domain.ErrUpstreamFetch).Once()
	feed.On("FetchLatest", mock.Anything).Return(eurPayload(), nil).Once()

	res, err := s.Sync(context.Background())

	require.NoError(t, err)
	require.True(t, res.Created)
	feed.AssertExpectations(t)
}

func TestSyncer_Sync_UnparseablePayload_NotRetried(t *testing.T) {
	feed := new(MockRateFeedClient)
	store := new(MockSnapshotStore)
	s := newTestSyncer(feed, store)

	store.On("Get", mock.Anything, mock.Anything).Return(domain.RateSnapshot{}, domain.ErrSnapshotNotFound).Once()
	feed.On("FetchLatest", mock.Anything).Return(domain.FeedPayload{}, errors.Join(domain.ErrUpstreamData, errors.New("unexpected EOF"))).Once()

	_, err := s.Sync(context.Background())

	require.ErrorIs(t, err, domain.ErrUpstreamData)
	require.NotErrorIs(t, err, domain.ErrUpstreamFetch)
	require.Equal(t, domain.StageFetch, domain.StageOf(err))
	feed.AssertNumberOfCalls(t, "FetchLatest", 1)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestSyncer_Sync_InvalidRates_ValidationStage(t *testing.T) {
	feed := new(MockRateFeedClient)
	store := new(MockSnapshotStore)
	s := newTestSyncer(feed, store)

	store.On("Get", mock.Anything, mock.Anything).Return(domain.RateSnapshot{}, domain.ErrSnapshotNotFound).Once()
	feed.On("FetchLatest", mock.Anything).Return(domain.FeedPayload{Base: "EUR", Rates: rawRates(map[string]string{"USD": `"abc"`})}, nil).Once()

	_, err := s.Sync(context.Background())

	require.ErrorIs(t, err, domain.ErrUpstreamData)
	require.ErrorIs(t, err, ErrInvalidRate)
	require.Equal(t, domain.StageValidate, domain.StageOf(err))
	feed.AssertNumberOfCalls(t, "FetchLatest", 1)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestSyncer_Sync_ExpiredOnPut_NotReportedCreated(t *testing.T) {
	feed := new(MockRateFeedClient)
	store := new(MockSnapshotStore)
	s := newTestSyncer(feed, store)

	store.On("Get", mock.Anything, mock.Anything).Return(domain.RateSnapshot{}, domain.ErrSnapshotNotFound).Once()
	feed.On("FetchLatest", mock.Anything).Return(eurPayload(), nil).Once()
	store.On("Put", mock.Anything, mock.Anything).Return(domain.ErrSnapshotExpired).Once()

	res, err := s.Sync(context.Background())

	require.ErrorIs(t, err, domain.ErrSnapshotExpired)
	require.ErrorIs(t, err, domain.ErrPersistence)
	require.Equal(t, domain.StagePersist, domain.StageOf(err))
	require.False(t, res.Created)
	require.Empty(t, res.SnapshotID)
}

func TestSyncer_Sync_PutError_PersistStage(t *testing.T) {
	feed := new(MockRateFeedClient)
	store := new(MockSnapshotStore)
	s := newTestSyncer(feed, store)
	dbErr := errors.New("db unavailable")

	store.On("Get", mock.Anything, mock.Anything).Return(domain.RateSnapshot{}, domain.ErrSnapshotNotFound).Once()
	feed.On("FetchLatest", mock.Anything).Return(eurPayload(), nil).Once()
	store.On("Put", mock.Anything, mock.Anything).Return(dbErr).Once()

	_, err := s.Sync(context.Background())

	require.ErrorIs(t, err, domain.ErrPersistence)
	require.ErrorIs(t, err, dbErr)
	require.Equal(t, domain.StagePersist, domain.StageOf(err))
	store.AssertNumberOfCalls(t, "Put", 1)
}

func TestSyncer_Sync_PutLostRace_ReportsSuccess(t *testing.T) {
	feed := new(MockRateFeedClient)
	store := new(MockSnapshotStore)
	s := newTestSyncer(feed, store)

	store.On("Get", mock.Anything, mock.Anything).Return(domain.RateSnapshot{}, domain.ErrSnapshotNotFound).Once()
	feed.On("FetchLatest", mock.Anything).Return(eurPayload(), nil).Once()
	store.On("Put", mock.Anything, mock.Anything).Return(domain.ErrSnapshotExists).Once()

	res, err := s.Sync(context.Background())

	require.NoError(t, err)
	require.False(t, res.Created)
	require.Equal(t, SnapshotIDAt(fixedNow), res.SnapshotID)
}

func TestSyncer_Sync_ExistenceCheckError_StillSyncs(t *testing.T) {
	feed := new(MockRateFeedClient)
	store := new(MockSnapshotStore)
	s := newTestSyncer(feed, store)

	store.On("Get", mock.Anything, mock.Anything).Return(domain.RateSnapshot{}, errors.New("timeout")).Once()
	feed.On("FetchLatest", mock.Anything).Return(eurPayload(), nil).Once()
	store.On("Put", mock.Anything, mock.Anything).Return(nil).Once()

	res, err := s.Sync(context.Background())

	require.NoError(t, err)
	require.True(t, res.Created)
	store.AssertExpectations(t)
}

func TestSyncer_Sync_FailureKeepsPreviousLatest(t *testing.T) {
	feed := new(MockRateFeedClient)
	store := newMemorySnapshotStore()
	s := newTestSyncer(feed, store)

	feed.On("FetchLatest", mock.Anything).Return(eurPayload(), nil).Once()
	first, err := s.Sync(context.Background())
	require.NoError(t, err)

	s.now = func() time.Time { return fixedNow.Add(time.Hour) }
	feed.On("FetchLatest", mock.Anything).Return(domain.FeedPayload{}, domain.ErrUpstreamFetch)
	_, err = s.Sync(context.Background())
	require.Error(t, err)

	latest, err := s.LatestSnapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, first.SnapshotID, latest.SnapshotID)
}

// --- LatestSnapshot ---

func TestLatestSnapshot_Empty(t *testing.T) {
	_, err := LatestSnapshot(context.Background(), newMemorySnapshotStore())
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestLatestSnapshot_PicksGreatestID(t *testing.T) {
	store := new(MockSnapshotStore)
	store.On("Scan", mock.Anything).Return([]domain.RateSnapshot{
		{SnapshotID: "20250110-150405.000001UTC"},
		{SnapshotID: "20250110-160000.000000UTC"},
		{SnapshotID: "20250109-235959.999999UTC"},
		{SnapshotID: "20250110-150405.000000UTC"},
	}, nil).Once()

	latest, err := LatestSnapshot(context.Background(), store)

	require.NoError(t, err)
	require.Equal(t, "20250110-160000.000000UTC", latest.SnapshotID)
}

func TestLatestSnapshot_ScanError(t *testing.T) {
	store := new(MockSnapshotStore)
	wantErr := errors.New("scan failed")
	store.On("Scan", mock.Anything).Return(nil, wantErr).Once()

	_, err := LatestSnapshot(context.Background(), store)

	require.ErrorIs(t, err, wantErr)
	require.NotErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestNewSyncer_Defaults(t *testing.T) {
	s := NewSyncer(new(MockRateFeedClient), newMemorySnapshotStore(), SyncConfig{}, nil)

	require.Equal(t, "EUR", s.cfg.PivotCurrency)
	require.Equal(t, 3, s.cfg.MaxAttempts)
	require.Equal(t, time.Second, s.cfg.BackoffBase)
	require.Equal(t, 30*time.Second, s.cfg.AttemptTimeout)
	require.Zero(t, s.cfg.Retention)
}

package adapters

import (
	"context"
	"time"

	"ratelock/internal/domain"
)

type RateFeedClient interface {
	FetchLatest(ctx context.Context) (domain.FeedPayload, error)
}

// SnapshotStore persists rate snapshots keyed by snapshot id. Put is
// write-once and Scan returns unexpired snapshots in no particular order.
type SnapshotStore interface {
	Get(ctx context.Context, snapshotID string) (domain.RateSnapshot, error)
	Put(ctx context.Context, snapshot domain.RateSnapshot) error
	Scan(ctx context.Context) ([]domain.RateSnapshot, error)
}

// AuditStore persists audit records keyed by transaction id. Put is write-once.
type AuditStore interface {
	Get(ctx context.Context, transactionID string) (domain.AuditRecord, error)
	Put(ctx context.Context, record domain.AuditRecord) error
}

// ExpiredPurger is implemented by stores without native expiry.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

type AuditCache interface {
	Get(transactionID string) (domain.AuditRecord, bool)
	Set(record domain.AuditRecord)
}

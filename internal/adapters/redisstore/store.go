package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ratelock/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "ratelock:"
	scanBatchSize    = 100
)

// SnapshotStore keeps each snapshot under its own key with a TTL derived from
// the snapshot expiry, so Redis drops expired snapshots by itself.
type SnapshotStore struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

func (s *SnapshotStore) key(snapshotID string) string {
	return s.prefix + "snapshot:" + snapshotID
}

func (s *SnapshotStore) Get(ctx context.Context, snapshotID string) (domain.RateSnapshot, error) {
	data, err := s.client.Get(ctx, s.key(snapshotID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.RateSnapshot{}, domain.ErrSnapshotNotFound
		}
		return domain.RateSnapshot{}, fmt.Errorf("failed to get snapshot %q: %w", snapshotID, err)
	}

	var snapshot domain.RateSnapshot
	if err = json.Unmarshal(data, &snapshot); err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("failed to decode snapshot %q: %w", snapshotID, err)
	}
	return snapshot, nil
}

func (s *SnapshotStore) Put(ctx context.Context, snapshot domain.RateSnapshot) error {
	var ttl time.Duration
	if snapshot.ExpiresAt != nil {
		ttl = snapshot.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return fmt.Errorf("%w: %s expired at %s", domain.ErrSnapshotExpired, snapshot.SnapshotID, snapshot.ExpiresAt.Format(time.RFC3339))
		}
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(snapshot.SnapshotID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store snapshot %q: %w", snapshot.SnapshotID, err)
	}
	if !ok {
		return domain.ErrSnapshotExists
	}
	return nil
}

func (s *SnapshotStore) Scan(ctx context.Context) ([]domain.RateSnapshot, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"snapshot:*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan snapshot keys: %w", err)
	}

	snapshots := make([]domain.RateSnapshot, 0, len(keys))
	for start := 0; start < len(keys); start += scanBatchSize {
		end := min(start+scanBatchSize, len(keys))
		values, err := s.client.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshots: %w", err)
		}
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				// expired between SCAN and MGET
				continue
			}
			var snapshot domain.RateSnapshot
			if err = json.Unmarshal([]byte(raw), &snapshot); err != nil {
				return nil, fmt.Errorf("failed to decode snapshot %q: %w", keys[start+i], err)
			}
			snapshots = append(snapshots, snapshot)
		}
	}
	return snapshots, nil
}

type AuditStore struct {
	client redis.Cmdable
	prefix string
}

func (s *AuditStore) key(transactionID string) string {
	return s.prefix + "audit:" + transactionID
}

func (s *AuditStore) Get(ctx context.Context, transactionID string) (domain.AuditRecord, error) {
	data, err := s.client.Get(ctx, s.key(transactionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.AuditRecord{}, domain.ErrAuditRecordNotFound
		}
		return domain.AuditRecord{}, fmt.Errorf("failed to get audit record %q: %w", transactionID, err)
	}

	var record domain.AuditRecord
	if err = json.Unmarshal(data, &record); err != nil {
		return domain.AuditRecord{}, fmt.Errorf("failed to decode audit record %q: %w", transactionID, err)
	}
	return record, nil
}

// Put stores the record without expiry.
func (s *AuditStore) Put(ctx context.Context, record domain.AuditRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(record.TransactionID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to store audit record %q: %w", record.TransactionID, err)
	}
	if !ok {
		return domain.ErrAuditRecordExists
	}
	return nil
}

func NewSnapshotStore(client redis.Cmdable, prefix string) *SnapshotStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &SnapshotStore{client: client, prefix: prefix, now: time.Now}
}

func NewAuditStore(client redis.Cmdable, prefix string) *AuditStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &AuditStore{client: client, prefix: prefix}
}

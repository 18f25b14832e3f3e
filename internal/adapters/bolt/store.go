package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ratelock/internal/domain"

	"go.etcd.io/bbolt"
)

var (
	snapshotsBucket = []byte("RateSnapshots")
	auditBucket     = []byte("AuditRecords")
)

// Store keeps snapshots and audit records in a single bbolt file, one bucket
// each, values JSON encoded. Expired snapshots stay on disk until PurgeExpired
// but are hidden from reads.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

func Open(filePath string) (*Store, error) {
	db, err := bbolt.Open(filePath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bn := range [][]byte{snapshotsBucket, auditBucket} {
			if _, err := tx.CreateBucketIfNotExists(bn); err != nil {
				return fmt.Errorf("could not create bucket %s: %w", string(bn), err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Snapshots() *SnapshotStore { return &SnapshotStore{store: s} }

func (s *Store) Audit() *AuditStore { return &AuditStore{store: s} }

type SnapshotStore struct {
	store *Store
}

func (ss *SnapshotStore) Get(_ context.Context, snapshotID string) (domain.RateSnapshot, error) {
	var (
		snapshot domain.RateSnapshot
		found    bool
	)
	err := ss.store.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(snapshotsBucket).Get([]byte(snapshotID))
		if len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return fmt.Errorf("could not decode snapshot %q: %w", snapshotID, err)
		}
		found = true
		return nil
	})
	if err != nil {
		return domain.RateSnapshot{}, err
	}
	if !found || snapshot.Expired(ss.store.now()) {
		return domain.RateSnapshot{}, domain.ErrSnapshotNotFound
	}
	return snapshot, nil
}

func (ss *SnapshotStore) Put(_ context.Context, snapshot domain.RateSnapshot) error {
	bytes, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}

	return ss.store.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(snapshotsBucket)
		key := []byte(snapshot.SnapshotID)
		if bucket.Get(key) != nil {
			return domain.ErrSnapshotExists
		}
		if err := bucket.Put(key, bytes); err != nil {
			return fmt.Errorf("snapshot write error: %w", err)
		}
		return nil
	})
}

func (ss *SnapshotStore) Scan(_ context.Context) ([]domain.RateSnapshot, error) {
	now := ss.store.now()
	var result []domain.RateSnapshot

	err := ss.store.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(snapshotsBucket).Cursor()

		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var snapshot domain.RateSnapshot
			if err := json.Unmarshal(v, &snapshot); err != nil {
				return fmt.Errorf("could not decode snapshot %q: %w", string(k), err)
			}
			if snapshot.Expired(now) {
				continue
			}
			result = append(result, snapshot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PurgeExpired deletes snapshots whose expiry is at or before now.
func (ss *SnapshotStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	purged := 0
	err := ss.store.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(snapshotsBucket)

		var expired [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			var snapshot domain.RateSnapshot
			if err := json.Unmarshal(v, &snapshot); err != nil {
				return fmt.Errorf("could not decode snapshot %q: %w", string(k), err)
			}
			if snapshot.Expired(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return fmt.Errorf("could not delete snapshot %q: %w", string(k), err)
			}
		}
		purged = len(expired)
		return nil
	})
	return purged, err
}

type AuditStore struct {
	store *Store
}

func (as *AuditStore) Get(_ context.Context, transactionID string) (domain.AuditRecord, error) {
	var (
		record domain.AuditRecord
		found  bool
	)
	err := as.store.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(auditBucket).Get([]byte(transactionID))
		if len(data) == 0 {
			return nil
		}
		found = true
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("could not read audit record %q: %w", transactionID, err)
	}
	if !found {
		return domain.AuditRecord{}, domain.ErrAuditRecordNotFound
	}
	return record, nil
}

func (as *AuditStore) Put(_ context.Context, record domain.AuditRecord) error {
	bytes, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal audit record: %w", err)
	}

	return as.store.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(auditBucket)
		key := []byte(record.TransactionID)
		if bucket.Get(key) != nil {
			return domain.ErrAuditRecordExists
		}
		if err := bucket.Put(key, bytes); err != nil {
			return fmt.Errorf("audit record write error: %w", err)
		}
		return nil
	})
}

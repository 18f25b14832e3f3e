package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ratelock/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type SnapshotRepository struct {
	pool *pgxpool.Pool
}

func (r *SnapshotRepository) Get(ctx context.Context, snapshotID string) (domain.RateSnapshot, error) {
	const q = `
		select snapshot_id, base_currency, rates, feed_date, fetched_at, expires_at
		from rate_snapshots
		where snapshot_id = $1 and (expires_at is null or expires_at > now());
	`

	snapshot, err := scanSnapshot(r.pool.QueryRow(ctx, q, snapshotID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RateSnapshot{}, domain.ErrSnapshotNotFound
		}
		return domain.RateSnapshot{}, fmt.Errorf("failed to select rate snapshot %q: %w", snapshotID, err)
	}
	return snapshot, nil
}

func (r *SnapshotRepository) Put(ctx context.Context, snapshot domain.RateSnapshot) error {
	const q = `
		insert into rate_snapshots (snapshot_id, base_currency, rates, feed_date, fetched_at, expires_at)
		values ($1, $2, $3::jsonb, $4, $5, $6)
		on conflict (snapshot_id) do nothing;
	`

	ratesJSON, err := json.Marshal(snapshot.Rates)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot rates: %w", err)
	}

	tag, err := r.pool.Exec(ctx, q,
		snapshot.SnapshotID,
		snapshot.BaseCurrency,
		string(ratesJSON),
		snapshot.FeedDate,
		snapshot.FetchedAt,
		snapshot.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rate snapshot %q: %w", snapshot.SnapshotID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSnapshotExists
	}
	return nil
}

func (r *SnapshotRepository) Scan(ctx context.Context) ([]domain.RateSnapshot, error) {
	const q = `
		select snapshot_id, base_currency, rates, feed_date, fetched_at, expires_at
		from rate_snapshots
		where expires_at is null or expires_at > now();
	`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]domain.RateSnapshot, 0, 32)
	for rows.Next() {
		snapshot, scanErr := scanSnapshot(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan rate snapshot: %w", scanErr)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rate snapshots: %w", err)
	}
	return snapshots, nil
}

// PurgeExpired deletes snapshots whose expiry is at or before now.
func (r *SnapshotRepository) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	const q = `delete from rate_snapshots where expires_at is not null and expires_at <= $1;`

	tag, err := r.pool.Exec(ctx, q, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired rate snapshots: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanSnapshot(row pgx.Row) (domain.RateSnapshot, error) {
	var (
		snapshot  domain.RateSnapshot
		ratesJSON []byte
	)
	if err := row.Scan(
		&snapshot.SnapshotID,
		&snapshot.BaseCurrency,
		&ratesJSON,
		&snapshot.FeedDate,
		&snapshot.FetchedAt,
		&snapshot.ExpiresAt,
	); err != nil {
		return domain.RateSnapshot{}, err
	}

	snapshot.Rates = make(map[string]decimal.Decimal)
	if err := json.Unmarshal(ratesJSON, &snapshot.Rates); err != nil {
		return domain.RateSnapshot{}, fmt.Errorf("failed to decode rates of %q: %w", snapshot.SnapshotID, err)
	}
	return snapshot, nil
}

func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ratelock/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func (r *AuditRepository) Get(ctx context.Context, transactionID string) (domain.AuditRecord, error) {
	// Amounts travel as text so numeric scale survives the round trip.
	const q = `
		select transaction_id, from_currency, to_currency,
		       original_amount::text, converted_amount::text,
		       rate_snapshot_id, calculation_method, rates_used,
		       conversion_timestamp, service_version
		from conversion_audit_log
		where transaction_id = $1;
	`

	var (
		rec                 domain.AuditRecord
		original, converted string
		method              string
		ratesJSON           []byte
	)
	err := r.pool.QueryRow(ctx, q, transactionID).Scan(
		&rec.TransactionID,
		&rec.FromCurrency,
		&rec.ToCurrency,
		&original,
		&converted,
		&rec.SnapshotID,
		&method,
		&ratesJSON,
		&rec.Timestamp,
		&rec.ServiceVersion,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AuditRecord{}, domain.ErrAuditRecordNotFound
		}
		return domain.AuditRecord{}, fmt.Errorf("failed to select audit record %q: %w", transactionID, err)
	}

	if rec.OriginalAmount, err = decimal.NewFromString(original); err != nil {
		return domain.AuditRecord{}, fmt.Errorf("failed to parse original amount %q: %w", original, err)
	}
	if rec.ConvertedAmount, err = decimal.NewFromString(converted); err != nil {
		return domain.AuditRecord{}, fmt.Errorf("failed to parse converted amount %q: %w", converted, err)
	}
	rec.CalculationMethod = domain.CalculationMethod(method)
	rec.RatesUsed = make(map[string]decimal.Decimal)
	if err = json.Unmarshal(ratesJSON, &rec.RatesUsed); err != nil {
		return domain.AuditRecord{}, fmt.Errorf("failed to decode rates used: %w", err)
	}
	return rec, nil
}

func (r *AuditRepository) Put(ctx context.Context, record domain.AuditRecord) error {
	const q = `
		insert into conversion_audit_log (
			transaction_id, from_currency, to_currency,
			original_amount, converted_amount,
			rate_snapshot_id, calculation_method, rates_used,
			conversion_timestamp, service_version
		)
		values ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8::jsonb, $9, $10)
		on conflict (transaction_id) do nothing;
	`

	ratesJSON, err := json.Marshal(record.RatesUsed)
	if err != nil {
		return fmt.Errorf("failed to marshal rates used: %w", err)
	}

	tag, err := r.pool.Exec(ctx, q,
		record.TransactionID,
		record.FromCurrency,
		record.ToCurrency,
		record.OriginalAmount.String(),
		record.ConvertedAmount.String(),
		record.SnapshotID,
		string(record.CalculationMethod),
		string(ratesJSON),
		record.Timestamp,
		record.ServiceVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit record %q: %w", record.TransactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAuditRecordExists
	}
	return nil
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

package conversion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ratelock/internal/adapters"
	"ratelock/internal/domain"
	"ratelock/internal/platform/metrics"
	"ratelock/internal/rate"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultServiceVersion = "1.0.0"

type ConvertRequest struct {
	From   string
	To     string
	Amount string
}

type ConversionResult struct {
	TransactionID   string
	SnapshotID      string
	FromCurrency    string
	ToCurrency      string
	OriginalAmount  decimal.Decimal
	ConvertedAmount decimal.Decimal
	Method          domain.CalculationMethod
	Timestamp       time.Time
}

// Engine converts amounts against the latest rate snapshot. A conversion is
// reported as successful only after its audit record has been stored.
type Engine struct {
	snapshots adapters.SnapshotStore
	audits    adapters.AuditStore
	cache     adapters.AuditCache
	metrics   *metrics.Metrics
	version   string

	now           func() time.Time
	transactionID func(time.Time) string
}

func (e *Engine) Convert(ctx context.Context, req ConvertRequest) (ConversionResult, error) {
	started := time.Now()
	result, err := e.convert(ctx, req)

	outcome, method := metrics.ConversionSucceeded, string(result.Method)
	if err != nil {
		outcome, method = metrics.ConversionFailed, "none"
	}
	e.metrics.ObserveConversion(method, outcome, time.Since(started).Seconds())
	return result, err
}

func (e *Engine) convert(ctx context.Context, req ConvertRequest) (ConversionResult, error) {
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return ConversionResult{}, err
	}
	from, to, err := NormalizeCurrencyCodes(req.From, req.To)
	if err != nil {
		return ConversionResult{}, err
	}

	snapshot, err := rate.LatestSnapshot(ctx, e.snapshots)
	if err != nil {
		if errors.Is(err, domain.ErrDataUnavailable) {
			return ConversionResult{}, domain.NewStageError(domain.StageSnapshotLookup, domain.ErrDataUnavailable, nil)
		}
		return ConversionResult{}, domain.NewStageError(domain.StageSnapshotLookup, domain.ErrPersistence, err)
	}

	for _, code := range []struct{ field, value string }{{"from", from}, {"to", to}} {
		if !snapshot.Knows(code.value) {
			return ConversionResult{}, domain.NewValidationError(code.field, "Currency not supported: %s", code.value)
		}
	}

	calc := Calculate(snapshot, from, to, amount)
	now := e.now().UTC()
	record := domain.AuditRecord{
		TransactionID:     e.transactionID(now),
		FromCurrency:      from,
		ToCurrency:        to,
		OriginalAmount:    amount,
		ConvertedAmount:   calc.Amount,
		SnapshotID:        snapshot.SnapshotID,
		CalculationMethod: calc.Method,
		RatesUsed:         calc.RatesUsed,
		Timestamp:         now,
		ServiceVersion:    e.version,
	}

	log := logrus.WithFields(logrus.Fields{
		"transaction_id": record.TransactionID,
		"snapshot_id":    record.SnapshotID,
		"from":           from,
		"to":             to,
	})
	if err = e.audits.Put(ctx, record); err != nil {
		e.metrics.ObserveAuditWriteFailure()
		log.WithError(err).Error("Failed to create audit log, conversion aborted")
		return ConversionResult{}, domain.NewStageError(domain.StageAuditWrite, domain.ErrPersistence, err)
	}
	if e.cache != nil {
		e.cache.Set(record)
	}
	log.WithField("method", calc.Method).Info("Conversion completed")

	return ConversionResult{
		TransactionID:   record.TransactionID,
		SnapshotID:      record.SnapshotID,
		FromCurrency:    from,
		ToCurrency:      to,
		OriginalAmount:  amount,
		ConvertedAmount: calc.Amount,
		Method:          calc.Method,
		Timestamp:       now,
	}, nil
}

// GetAuditRecord looks a record up by transaction id. Ids that could not have
// been issued by this engine are reported as not found without a store read.
func (e *Engine) GetAuditRecord(ctx context.Context, transactionID string) (domain.AuditRecord, error) {
	transactionID = strings.TrimSpace(transactionID)
	if !IsTransactionID(transactionID) {
		return domain.AuditRecord{}, domain.ErrAuditRecordNotFound
	}

	if e.cache != nil {
		if record, ok := e.cache.Get(transactionID); ok {
			return record, nil
		}
	}

	record, err := e.audits.Get(ctx, transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrAuditRecordNotFound) {
			return domain.AuditRecord{}, err
		}
		return domain.AuditRecord{}, fmt.Errorf("failed to read audit record: %w", err)
	}
	if e.cache != nil {
		e.cache.Set(record)
	}
	return record, nil
}

func (e *Engine) LatestRateInfo(ctx context.Context) (domain.RateInfo, error) {
	snapshot, err := rate.LatestSnapshot(ctx, e.snapshots)
	if err != nil {
		return domain.RateInfo{}, err
	}
	return domain.RateInfo{
		SnapshotID:   snapshot.SnapshotID,
		BaseCurrency: snapshot.BaseCurrency,
		FeedDate:     snapshot.FeedDate,
		RateCount:    len(snapshot.Rates),
		FetchedAt:    snapshot.FetchedAt,
	}, nil
}

func NewEngine(snapshots adapters.SnapshotStore, audits adapters.AuditStore, cache adapters.AuditCache, m *metrics.Metrics, serviceVersion string) *Engine {
	if serviceVersion == "" {
		serviceVersion = defaultServiceVersion
	}
	return &Engine{
		snapshots:     snapshots,
		audits:        audits,
		cache:         cache,
		metrics:       m,
		version:       serviceVersion,
		now:           time.Now,
		transactionID: NewTransactionID,
	}
}

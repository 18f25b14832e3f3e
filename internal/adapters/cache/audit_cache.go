package cache

import (
	"fmt"

	"ratelock/internal/domain"

	"github.com/dgraph-io/ristretto"
)

// RistrettoAuditCache keeps recently written or read audit records in memory.
// Records are immutable once stored, so entries never need invalidation.
type RistrettoAuditCache struct {
	cache *ristretto.Cache
}

func NewAuditCache(maxItems int64) (*RistrettoAuditCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create audit cache failed: %w", err)
	}
	return &RistrettoAuditCache{cache: c}, nil
}

func (c *RistrettoAuditCache) Get(transactionID string) (domain.AuditRecord, bool) {
	if v, ok := c.cache.Get(transactionID); ok {
		rec, ok := v.(domain.AuditRecord)
		return rec, ok
	}
	return domain.AuditRecord{}, false
}

func (c *RistrettoAuditCache) Set(record domain.AuditRecord) {
	c.cache.Set(record.TransactionID, record, 1)
}

func (c *RistrettoAuditCache) Close() { c.cache.Close() }

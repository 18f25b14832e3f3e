package conversion

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const transactionIDPrefix = "audit-"

// NewTransactionID returns "audit-<unix micros>-<8 hex chars>". The random
// suffix keeps concurrent conversions in the same microsecond apart.
func NewTransactionID(now time.Time) string {
	return fmt.Sprintf("%s%d-%s", transactionIDPrefix, now.UnixMicro(), uuid.NewString()[:8])
}

// IsTransactionID reports whether id has the shape produced by NewTransactionID.
func IsTransactionID(id string) bool {
	rest, ok := strings.CutPrefix(id, transactionIDPrefix)
	if !ok {
		return false
	}
	ts, suffix, ok := strings.Cut(rest, "-")
	if !ok || ts == "" || len(suffix) != 8 {
		return false
	}
	for _, c := range ts {
		if c < '0' || c > '9' {
			return false
		}
	}
	for _, c := range suffix {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}

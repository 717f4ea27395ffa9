// Package importcsv implements the CSV parsing and classification pipeline
// used by the Budget Engine's import feature (component G): parse, classify
// each row as New/Duplicate/Invalid, and fingerprint rows for idempotent
// duplicate detection.
package importcsv

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/budgetengine/core/internal/domain"
)

// normalize trims, collapses internal whitespace, and uppercases a string,
// as used by the fingerprint and duplicate-detection rules.
func normalize(s string) string {
	return strings.ToUpper(domain.NormalizePayeeName(s))
}

// Fingerprint computes the deterministic SHA-256 fingerprint of a transaction-
// equivalent record:
//
//	SHA-256(accountId-as-hex-without-dashes | ISO-date | amount-2dp | currency | normalized(payee) | normalized(memo))
func Fingerprint(accountID uuid.UUID, date time.Time, amount decimal.Decimal, currency, payee, memo string) string {
	accountHex := strings.ReplaceAll(accountID.String(), "-", "")
	parts := []string{
		accountHex,
		date.Format("2006-01-02"),
		amount.StringFixed(2),
		currency,
		normalize(payee),
		normalize(memo),
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

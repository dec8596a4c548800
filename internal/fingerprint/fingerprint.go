package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/fraudshield/docintake/internal/normalize"
)

// Components are the normalized fields a fingerprint is derived from.
// Raw merchant/date strings are never hashed directly; formatting
// differences would otherwise hide near-duplicates.
type Components struct {
	Merchant     string `json:"merchant"`
	Date         string `json:"date"`
	AmountBucket string `json:"amount_bucket"`
}

// Fingerprints holds the exact and fuzzy hashes for one submission.
// Both are nil when the normalized merchant and date are both empty;
// an amount alone is not enough signal to fingerprint on.
type Fingerprints struct {
	Exact      *string    `json:"exact_fp"`
	Fuzzy      *string    `json:"fuzzy_fp"`
	Components Components `json:"components"`
}

// Compute derives both fingerprints from resolved entity fields.
// exact = hash(merchant|date|rawAmount); fuzzy = hash(merchant|date|bucket).
func Compute(merchant, date string, amount *float64) Fingerprints {
	comp := Components{
		Merchant:     normalize.Merchant(merchant),
		Date:         normalize.Date(date),
		AmountBucket: normalize.AmountBucket(amount),
	}
	fps := Fingerprints{Components: comp}
	if comp.Merchant == "" && comp.Date == "" {
		return fps
	}

	raw := "none"
	if amount != nil {
		raw = strconv.FormatFloat(*amount, 'f', 2, 64)
	}
	exact := hash32(comp.Merchant + "|" + comp.Date + "|" + raw)
	fuzzy := hash32(comp.Merchant + "|" + comp.Date + "|" + comp.AmountBucket)
	fps.Exact = &exact
	fps.Fuzzy = &fuzzy
	return fps
}

// hash32 is a sha256 truncated to 32 hex characters, enough to make
// accidental collisions a non-issue at this table's scale.
func hash32(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:32]
}

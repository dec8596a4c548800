package normalize

import (
	"fmt"
	"math"
)

// AmountBucket maps a total into a coarse 10-unit bucket so a total edited
// by a few units still collides with the original in fuzzy fingerprints.
// nil/NaN -> "none"; <=0 -> "zero"; otherwise "bucket_{lower}_{lower+10}".
func AmountBucket(amount *float64) string {
	if amount == nil || math.IsNaN(*amount) || math.IsInf(*amount, 0) {
		return "none"
	}
	if *amount <= 0 {
		return "zero"
	}
	lower := int(math.Floor(*amount/10.0)) * 10
	return fmt.Sprintf("bucket_%d_%d", lower, lower+10)
}

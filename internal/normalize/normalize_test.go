package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerchant(t *testing.T) {
	assert.Equal(t, "nayara energy", Merchant("Nayara Energy Pvt Ltd"))
	assert.Equal(t, "nayara energy", Merchant("NAYARA ENERGY"))
	assert.Equal(t, "acme", Merchant("  ACME   Inc.  "))
	assert.Equal(t, "blue dart", Merchant("Blue Dart Enterprises"))
	assert.Equal(t, "alpha beta", Merchant("Alpha Beta LLC"))
	assert.Equal(t, "", Merchant("   "))
	// suffix only matches as a whole word
	assert.Equal(t, "coltd traders", Merchant("Coltd Traders"))
}

func TestDate(t *testing.T) {
	cases := map[string]string{
		"2024-03-15":       "2024-03-15",
		"15/03/2024":       "2024-03-15",
		"15-03-2024":       "2024-03-15",
		"15.03.2024":       "2024-03-15",
		"15 Mar 2024":      "2024-03-15",
		"15 March 2024":    "2024-03-15",
		"Mar 15, 2024":     "2024-03-15",
		"March 15, 2024":   "2024-03-15",
		"2024/03/15":       "2024-03-15",
		"not a date at al": "not a date at al",
		"":                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Date(in), "input %q", in)
	}
}

func TestAmountBucket(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	assert.Equal(t, "bucket_40_50", AmountBucket(f(45.0)))
	assert.Equal(t, "bucket_40_50", AmountBucket(f(47.5)))
	assert.Equal(t, "bucket_50_60", AmountBucket(f(51.0)))
	assert.Equal(t, "bucket_0_10", AmountBucket(f(0.01)))
	assert.Equal(t, "zero", AmountBucket(f(0)))
	assert.Equal(t, "zero", AmountBucket(f(-12.5)))
	assert.Equal(t, "none", AmountBucket(nil))
}

func TestText(t *testing.T) {
	in := "TOTAL:\t45.00\r\nThank   you\r\n\n\n\nVisit again   \n"
	want := "TOTAL: 45.00\nThank you\n\nVisit again"
	assert.Equal(t, want, Text(in))
	assert.Equal(t, "", Text(""))
}

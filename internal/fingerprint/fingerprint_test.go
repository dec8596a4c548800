package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(v float64) *float64 { return &v }

func TestComputeNormalizesBeforeHashing(t *testing.T) {
	a := Compute("Nayara Energy Pvt Ltd", "15/03/2024", amt(45.0))
	b := Compute("NAYARA ENERGY", "2024-03-15", amt(45.0))

	require.NotNil(t, a.Exact)
	require.NotNil(t, b.Exact)
	assert.Equal(t, *a.Exact, *b.Exact)
	assert.Equal(t, *a.Fuzzy, *b.Fuzzy)
	assert.Equal(t, "nayara energy", a.Components.Merchant)
	assert.Equal(t, "2024-03-15", a.Components.Date)
	assert.Equal(t, "bucket_40_50", a.Components.AmountBucket)
}

func TestComputeFuzzyToleratesNearbyAmounts(t *testing.T) {
	a := Compute("Acme", "2024-03-15", amt(45.0))
	b := Compute("Acme", "2024-03-15", amt(47.5))
	c := Compute("Acme", "2024-03-15", amt(51.0))

	assert.NotEqual(t, *a.Exact, *b.Exact)
	assert.Equal(t, *a.Fuzzy, *b.Fuzzy, "same 10-unit bucket must collide")
	assert.NotEqual(t, *a.Fuzzy, *c.Fuzzy, "different bucket must not collide")
}

func TestComputeInsufficientSignal(t *testing.T) {
	fps := Compute("", "", amt(45.0))
	assert.Nil(t, fps.Exact)
	assert.Nil(t, fps.Fuzzy)

	// merchant alone is enough
	fps = Compute("Acme", "", nil)
	assert.NotNil(t, fps.Exact)

	// date alone is enough
	fps = Compute("", "2024-03-15", nil)
	assert.NotNil(t, fps.Exact)
}

func TestComputeUnparseableDateStillFingerprints(t *testing.T) {
	fps := Compute("Acme", "sometime last week", amt(10))
	require.NotNil(t, fps.Exact)
	assert.Equal(t, "sometime last week", fps.Components.Date)
}

func TestHash32Shape(t *testing.T) {
	fps := Compute("Acme", "2024-03-15", amt(10))
	assert.Len(t, *fps.Exact, 32)
	assert.Len(t, *fps.Fuzzy, 32)
	assert.NotEqual(t, *fps.Exact, *fps.Fuzzy)
}

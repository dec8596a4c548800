package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudshield/docintake/internal/extract"
	"github.com/fraudshield/docintake/internal/fingerprint"
	"github.com/fraudshield/docintake/internal/resolve"
)

type stubExtractor struct {
	entity string
	ext    Extraction
	err    error
}

func (s stubExtractor) Entity() string { return s.entity }
func (s stubExtractor) Extract(context.Context, extract.TextCorpus) (Extraction, error) {
	return s.ext, s.err
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func stubOCR(pages ...string) extract.OCRFallback {
	return func(context.Context, string) (extract.OCRResult, error) {
		return extract.OCRResult{Pages: pages}, nil
	}
}

func newIntake(t *testing.T, extractors ...EntityExtractor) *Intake {
	t.Helper()
	store, err := fingerprint.Open(filepath.Join(t.TempDir(), "fp.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return NewIntake(
		extract.NewExtractor(extract.Config{PreferNative: true}, nil),
		resolve.NewResolver(resolve.Config{}, nil),
		store,
		stubOCR("RECEIPT\nNayara Energy Pvt Ltd\nDate: 15/03/2024\nTOTAL 45.00\nThank you for your purchase today"),
		extractors,
		nil,
	)
}

func merchantStub() stubExtractor {
	return stubExtractor{
		entity: EntityMerchant,
		ext: Extraction{
			Candidates: []resolve.Candidate{
				{Value: "Nayara Energy Pvt Ltd", Score: 10, Reasons: []string{"seller_zone"}},
				{Value: "John Buyer", Score: 4, Zone: resolve.ZoneBuyer},
			},
			WinnerValue: "Nayara Energy Pvt Ltd",
			Confidence:  0.9,
		},
	}
}

func TestProcessEndToEnd(t *testing.T) {
	p := newIntake(t,
		merchantStub(),
		stubExtractor{entity: EntityDate, ext: Extraction{WinnerValue: "15/03/2024", Confidence: 0.8}},
		stubExtractor{entity: EntityAmount, ext: Extraction{WinnerValue: 45.0, Confidence: 0.7}},
	)

	doc := writeDoc(t, "receipt.png", "fake image bytes")
	res, err := p.Process(context.Background(), doc)
	require.NoError(t, err)

	assert.NotEmpty(t, res.DocID)
	assert.Len(t, res.ContentHash, 64)
	assert.Equal(t, extract.SourceOCR, res.Corpus.Source)
	assert.Contains(t, res.Corpus.FullText, "Nayara Energy")

	require.Contains(t, res.Entities, EntityMerchant)
	assert.Equal(t, resolve.BucketHigh, res.Entities[EntityMerchant].ConfidenceBucket)

	// first sighting is never a duplicate
	assert.False(t, res.Duplicate.IsDuplicate)
	require.NotNil(t, res.Duplicate.Fingerprints.Exact)
	assert.Equal(t, "nayara energy", res.Duplicate.Fingerprints.Components.Merchant)

	// same entities under a different file -> exact duplicate
	doc2 := writeDoc(t, "receipt-copy.png", "different bytes, same content")
	res2, err := p.Process(context.Background(), doc2)
	require.NoError(t, err)
	assert.True(t, res2.Duplicate.IsDuplicate)
	assert.Equal(t, "exact", res2.Duplicate.MatchType)
}

func TestProcessEntityExtractorFailureIsNonFatal(t *testing.T) {
	p := newIntake(t,
		merchantStub(),
		stubExtractor{entity: EntityDate, err: errors.New("no date-like lines")},
	)

	doc := writeDoc(t, "receipt.png", "bytes")
	res, err := p.Process(context.Background(), doc)
	require.NoError(t, err)

	require.Contains(t, res.Entities, EntityDate)
	date := res.Entities[EntityDate]
	assert.Nil(t, date.Value)
	assert.Equal(t, resolve.BucketNone, date.ConfidenceBucket)
	assert.Equal(t, "no date-like lines", date.Evidence.Extra["extractor_error"])
}

func TestProcessUnreadableFileIsHardError(t *testing.T) {
	p := newIntake(t)
	_, err := p.Process(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

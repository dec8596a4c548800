package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(native func(string) ([]string, error)) *Extractor {
	e := NewExtractor(Config{PreferNative: true}, nil)
	e.native = native
	return e
}

func goodPage() string {
	return strings.Repeat("Invoice for professional services rendered, total due on receipt.\n", 8)
}

func TestExtractAcceptsGoodNativeText(t *testing.T) {
	e := newTestExtractor(func(string) ([]string, error) {
		return []string{goodPage(), goodPage()}, nil
	})

	fallbackCalled := false
	corpus := e.Extract(context.Background(), "doc.pdf", func(context.Context, string) (OCRResult, error) {
		fallbackCalled = true
		return OCRResult{}, nil
	})

	assert.False(t, fallbackCalled)
	assert.Equal(t, SourceNativeText, corpus.Source)
	assert.Len(t, corpus.Pages, 2)
	assert.GreaterOrEqual(t, corpus.Quality.Score, DefaultQualityThreshold)
	assert.Contains(t, corpus.FullText, "professional services")
}

func TestExtractFallsBackOnShortNativeText(t *testing.T) {
	// 40-char garbled string -> char_count < 50 -> fallback must fire
	e := newTestExtractor(func(string) ([]string, error) {
		return []string{"x1 9z @@ qq ## zz !! kk 00 vv %% nn &&"}, nil
	})

	corpus := e.Extract(context.Background(), "doc.pdf", func(context.Context, string) (OCRResult, error) {
		return OCRResult{Pages: []string{goodPage()}, Meta: map[string]any{"ocr_method": "pdf-ocr"}}, nil
	})

	assert.Equal(t, SourceOCR, corpus.Source)
	assert.Equal(t, "too_short", corpus.Diagnostics["native_rejected"])
	assert.Equal(t, "pdf-ocr", corpus.Diagnostics["ocr_method"])
}

func TestExtractFallsBackOnNativeError(t *testing.T) {
	e := newTestExtractor(func(string) ([]string, error) {
		return nil, errors.New("encrypted pdf")
	})

	corpus := e.Extract(context.Background(), "doc.pdf", func(context.Context, string) (OCRResult, error) {
		return OCRResult{Pages: []string{goodPage()}, Source: SourceVisionModel}, nil
	})

	assert.Equal(t, SourceVisionModel, corpus.Source)
	assert.Equal(t, "encrypted pdf", corpus.Diagnostics["native_error"])
}

func TestExtractEmptyCorpusWhenNoFallback(t *testing.T) {
	e := newTestExtractor(func(string) ([]string, error) {
		return nil, errors.New("no text layer")
	})

	corpus := e.Extract(context.Background(), "doc.pdf", nil)

	assert.Empty(t, corpus.FullText)
	assert.Equal(t, "empty_text", corpus.Quality.Reason)
	assert.Equal(t, "unavailable", corpus.Diagnostics["fallback"])
}

func TestExtractEmptyCorpusWhenFallbackFails(t *testing.T) {
	e := newTestExtractor(func(string) ([]string, error) {
		return []string{""}, nil
	})

	corpus := e.Extract(context.Background(), "scan.png", func(context.Context, string) (OCRResult, error) {
		return OCRResult{}, errors.New("tesseract missing")
	})

	require.Equal(t, "empty_text", corpus.Quality.Reason)
	assert.Equal(t, "tesseract missing", corpus.Diagnostics["ocr_error"])
}

func TestExtractImageSkipsNative(t *testing.T) {
	nativeCalled := false
	e := newTestExtractor(func(string) ([]string, error) {
		nativeCalled = true
		return nil, nil
	})

	corpus := e.Extract(context.Background(), "scan.jpg", func(context.Context, string) (OCRResult, error) {
		return OCRResult{Pages: []string{goodPage()}}, nil
	})

	assert.False(t, nativeCalled)
	assert.Equal(t, SourceOCR, corpus.Source)
}

package extract

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fraudshield/docintake/constants"
	"github.com/fraudshield/docintake/internal/normalize"
)

// DefaultQualityThreshold is the minimum quality score at which a
// native-text extraction is accepted without invoking the OCR fallback.
const DefaultQualityThreshold = 0.55

// minNativeChars is the minimum corpus size for a native result to count
// at all, regardless of score.
const minNativeChars = 50

type Config struct {
	PreferNative     bool
	QualityThreshold float64 // <=0 -> DefaultQualityThreshold
}

// Extractor produces a TextCorpus for a submitted document, preferring the
// cheap native text layer and falling back to a caller-supplied OCR path
// when the native result is missing or below the quality gate.
type Extractor struct {
	cfg    Config
	native func(path string) ([]string, error)
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QualityThreshold <= 0 {
		cfg.QualityThreshold = DefaultQualityThreshold
	}
	return &Extractor{cfg: cfg, native: nativePDFPages, logger: logger}
}

// Extract runs the quality-gated extraction policy. Extraction degradation
// is never surfaced as an error: a failed native read downgrades to the
// fallback, and a failed or absent fallback yields an empty corpus with the
// reason in Diagnostics.
func (e *Extractor) Extract(ctx context.Context, path string, fallback OCRFallback) TextCorpus {
	diags := map[string]any{}

	format := constants.MapExtToFormat(filepath.Ext(path))
	if e.cfg.PreferNative && format == constants.PDF {
		raw, err := e.native(path)
		if err != nil {
			e.logger.Debug("native extraction failed, falling back", "path", path, "error", err)
			diags["native_error"] = err.Error()
		} else {
			corpus := buildCorpus(SourceNativeText, raw, diags)
			if corpus.Quality.CharCount >= minNativeChars && corpus.Quality.Score >= e.cfg.QualityThreshold {
				e.logger.Debug("native extraction accepted",
					"path", path, "score", corpus.Quality.Score, "chars", corpus.Quality.CharCount)
				return corpus
			}
			diags["native_rejected"] = rejectReason(corpus.Quality, e.cfg.QualityThreshold)
			diags["native_score"] = corpus.Quality.Score
			e.logger.Debug("native extraction below gate, falling back",
				"path", path, "score", corpus.Quality.Score, "chars", corpus.Quality.CharCount)
		}
	}

	if fallback == nil {
		diags["fallback"] = "unavailable"
		return emptyCorpus(diags)
	}

	res, err := fallback(ctx, path)
	if err != nil {
		e.logger.Warn("ocr fallback failed", "path", path, "error", err)
		diags["ocr_error"] = err.Error()
		return emptyCorpus(diags)
	}
	for k, v := range res.Meta {
		diags[k] = v
	}
	src := res.Source
	if src == "" {
		src = SourceOCR
	}
	corpus := buildCorpus(src, res.Pages, diags)
	e.logger.Debug("ocr fallback used", "path", path, "source", string(src), "score", corpus.Quality.Score)
	return corpus
}

func buildCorpus(src Source, rawPages []string, diags map[string]any) TextCorpus {
	pages := make([]string, len(rawPages))
	for i, p := range rawPages {
		pages[i] = normalize.Text(p)
	}
	full := joinPages(pages)
	return TextCorpus{
		Source:      src,
		Pages:       pages,
		FullText:    full,
		Quality:     ScoreQuality(full),
		Diagnostics: diags,
	}
}

func emptyCorpus(diags map[string]any) TextCorpus {
	return TextCorpus{
		Pages:       []string{},
		Quality:     TextQuality{Reason: "empty_text"},
		Diagnostics: diags,
	}
}

func joinPages(pages []string) string {
	switch len(pages) {
	case 0:
		return ""
	case 1:
		return pages[0]
	}
	var out string
	for i, p := range pages {
		if i > 0 {
			out += "\n\n"
		}
		out += p
	}
	return out
}

func rejectReason(q TextQuality, threshold float64) string {
	if q.CharCount < minNativeChars {
		return "too_short"
	}
	if q.Score < threshold {
		return "low_quality"
	}
	return ""
}

package extract

import "context"

// Source identifies which backend produced a text corpus.
type Source string

const (
	SourceNativeText  Source = "native-text"
	SourceOCR         Source = "ocr"
	SourceVisionModel Source = "vision-model"
)

// TextQuality scores how usable an extracted text is for downstream
// entity extraction. Score is the additive heuristic result in [0,1].
type TextQuality struct {
	Score             float64 `json:"score"`
	CharCount         int     `json:"char_count"`
	AlphaRatio        float64 `json:"alpha_ratio"`
	DigitRatio        float64 `json:"digit_ratio"`
	UniqueRatio       float64 `json:"unique_ratio"`
	LineCount         int     `json:"line_count"`
	AvgLineLen        float64 `json:"avg_line_len"`
	WeirdSpacingRatio float64 `json:"weird_spacing_ratio"`
	Reason            string  `json:"reason,omitempty"`
}

// TextCorpus is the normalized text of one document. Immutable after
// construction; owned by the caller.
type TextCorpus struct {
	Source      Source         `json:"source"`
	Pages       []string       `json:"pages"`
	FullText    string         `json:"full_text"`
	Quality     TextQuality    `json:"quality"`
	Diagnostics map[string]any `json:"diagnostics,omitempty"`
}

// OCRResult is what an OCR fallback hands back: per-page text plus
// whatever metadata the backend wants surfaced in diagnostics.
type OCRResult struct {
	Pages  []string
	Source Source // SourceOCR or SourceVisionModel; empty defaults to ocr
	Meta   map[string]any
}

// OCRFallback produces text for a document when native extraction is
// unavailable or below the quality gate. Invoked in-line; the caller is
// responsible for timeout enforcement via ctx.
type OCRFallback func(ctx context.Context, path string) (OCRResult, error)

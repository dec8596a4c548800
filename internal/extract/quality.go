package extract

import (
	"strings"
	"unicode"
)

// ScoreQuality computes the additive quality heuristic for extracted text.
// Starts at 0.5, rewarded for length / alphabetic density / vocabulary /
// line shape, penalized for OCR shred artifacts (single-letter tokens,
// near-empty lines). Final score clamped to [0,1].
func ScoreQuality(text string) TextQuality {
	q := TextQuality{}
	q.CharCount = len([]rune(text))
	if q.CharCount == 0 {
		q.Reason = "empty_text"
		return q
	}

	var alpha, digit int
	unique := map[rune]struct{}{}
	for _, r := range text {
		if unicode.IsLetter(r) {
			alpha++
		}
		if unicode.IsDigit(r) {
			digit++
		}
		unique[r] = struct{}{}
	}
	q.AlphaRatio = float64(alpha) / float64(q.CharCount)
	q.DigitRatio = float64(digit) / float64(q.CharCount)
	q.UniqueRatio = float64(len(unique)) / float64(q.CharCount)

	var lineLenSum, nonBlank int
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		nonBlank++
		lineLenSum += len([]rune(ln))
	}
	q.LineCount = nonBlank
	if nonBlank > 0 {
		q.AvgLineLen = float64(lineLenSum) / float64(nonBlank)
	}

	// fraction of single-letter tokens (excluding "a"/"i"), a strong
	// signal of shredded OCR output
	tokens := strings.Fields(text)
	if len(tokens) > 0 {
		var weird int
		for _, tok := range tokens {
			if len([]rune(tok)) == 1 && unicode.IsLetter([]rune(tok)[0]) {
				low := strings.ToLower(tok)
				if low != "a" && low != "i" {
					weird++
				}
			}
		}
		q.WeirdSpacingRatio = float64(weird) / float64(len(tokens))
	}

	score := 0.5
	if q.CharCount >= 100 {
		score += 0.1
	}
	if q.CharCount >= 500 {
		score += 0.1
	}
	if q.AlphaRatio >= 0.4 {
		score += 0.15
	}
	if q.UniqueRatio >= 0.05 {
		score += 0.1
	}
	if q.AvgLineLen >= 20 {
		score += 0.1
	}
	if q.WeirdSpacingRatio > 0.15 {
		score -= 0.3
	}
	if q.AlphaRatio < 0.2 {
		score -= 0.2
	}
	if q.UniqueRatio < 0.02 {
		score -= 0.2
	}
	if q.AvgLineLen < 5 {
		score -= 0.2
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	q.Score = score
	return q
}

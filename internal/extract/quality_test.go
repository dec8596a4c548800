package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreQualityEmpty(t *testing.T) {
	q := ScoreQuality("")
	assert.Equal(t, 0.0, q.Score)
	assert.Equal(t, "empty_text", q.Reason)
}

func TestScoreQualityCleanReceipt(t *testing.T) {
	text := strings.Repeat("Invoice from Nayara Energy for fuel and services rendered this month.\n", 10)
	q := ScoreQuality(text)

	assert.GreaterOrEqual(t, q.Score, 0.8)
	assert.GreaterOrEqual(t, q.AlphaRatio, 0.4)
	assert.GreaterOrEqual(t, q.AvgLineLen, 20.0)
}

func TestScoreQualityShreddedText(t *testing.T) {
	// single-letter token soup, the classic bad-OCR shape
	text := strings.Repeat("x q z w v b n m k j\n", 20)
	q := ScoreQuality(text)

	assert.Greater(t, q.WeirdSpacingRatio, 0.15)
	assert.Less(t, q.Score, DefaultQualityThreshold)
}

func TestScoreQualityMonotonicUnderGoodAppend(t *testing.T) {
	garbled := "x q z 1 % # @@ !!\n"
	sentence := "The merchant issued a detailed receipt for the purchase of goods.\n"

	prev := ScoreQuality(garbled).Score
	text := garbled
	for i := 0; i < 8; i++ {
		text += sentence
		cur := ScoreQuality(text).Score
		assert.GreaterOrEqual(t, cur, prev, "appending well-formed text must not lower quality (iteration %d)", i)
		prev = cur
	}
}

func TestScoreQualityClamped(t *testing.T) {
	for _, text := range []string{"....", "aaaaaaaaaaaaaaaaaaaa", strings.Repeat("good readable invoice text here\n", 50)} {
		q := ScoreQuality(text)
		assert.GreaterOrEqual(t, q.Score, 0.0)
		assert.LessOrEqual(t, q.Score, 1.0)
	}
}

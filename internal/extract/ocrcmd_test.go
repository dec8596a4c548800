package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner answers pdftoppm by materializing page images and tesseract
// by returning canned text per image.
type fakeRunner struct {
	pages       int
	text        string
	tessErr     error
	calls       []string
	hadDeadline bool
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	if _, ok := ctx.Deadline(); ok {
		f.hadDeadline = true
	}
	f.calls = append(f.calls, name)
	switch name {
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= f.pages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), []byte("png"), 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		if f.tessErr != nil {
			return nil, []byte("boom"), f.tessErr
		}
		return []byte(f.text), nil, nil
	}
	return nil, nil, fmt.Errorf("unexpected command %q", name)
}

func TestCommandOCRPDF(t *testing.T) {
	runner := &fakeRunner{pages: 2, text: "TOTAL 45.00\n"}
	c := NewCommandOCR(CommandOCRConfig{}, nil)
	c.runner = runner

	res, err := c.Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Len(t, res.Pages, 2)
	assert.Contains(t, res.Pages[0], "TOTAL 45.00")
	assert.Equal(t, "pdf-ocr", res.Meta["ocr_method"])
	assert.Equal(t, "pdftoppm", runner.calls[0])
}

func TestCommandOCRImage(t *testing.T) {
	runner := &fakeRunner{text: "RECEIPT\n"}
	c := NewCommandOCR(CommandOCRConfig{}, nil)
	c.runner = runner

	res, err := c.Extract(context.Background(), "scan.jpg")
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, SourceOCR, res.Source)
	// image path runs plain OCR then the TSV confidence pass
	assert.Equal(t, []string{"tesseract", "tesseract"}, runner.calls)
}

func TestCommandOCRUnsupportedExtension(t *testing.T) {
	c := NewCommandOCR(CommandOCRConfig{}, nil)
	c.runner = &fakeRunner{}

	_, err := c.Extract(context.Background(), "notes.txt")
	assert.Error(t, err)
}

func TestCommandOCRTesseractFailure(t *testing.T) {
	runner := &fakeRunner{tessErr: errors.New("exit status 1")}
	c := NewCommandOCR(CommandOCRConfig{}, nil)
	c.runner = runner

	_, err := c.Extract(context.Background(), "scan.jpg")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "tesseract"))
}

func TestCommandOCRFallbackAppliesTimeout(t *testing.T) {
	runner := &fakeRunner{text: "RECEIPT\n"}
	c := NewCommandOCR(CommandOCRConfig{Timeout: time.Minute}, nil)
	c.runner = runner

	_, err := c.Fallback()(context.Background(), "scan.jpg")
	require.NoError(t, err)
	assert.True(t, runner.hadDeadline, "configured timeout must bound the command context")

	// no timeout configured -> no deadline imposed
	runner = &fakeRunner{text: "RECEIPT\n"}
	c = NewCommandOCR(CommandOCRConfig{}, nil)
	c.runner = runner
	_, err = c.Fallback()(context.Background(), "scan.jpg")
	require.NoError(t, err)
	assert.False(t, runner.hadDeadline)
}

func TestCommandOCRMaxPages(t *testing.T) {
	runner := &fakeRunner{pages: 5, text: "page text\n"}
	c := NewCommandOCR(CommandOCRConfig{MaxPages: 2}, nil)
	c.runner = runner

	res, err := c.Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Len(t, res.Pages, 2)
}

package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fraudshield/docintake/constants"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		slog.Error("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10),
		)
	} else {
		slog.Debug("exec ok",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", out.Len(),
		)
	}

	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

// CommandOCRConfig configures the external-binary OCR fallback.
type CommandOCRConfig struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Lang     string        // default "eng"
	DPI      int           // rasterization DPI for scanned PDFs, default 300
	MaxPages int           // 0 = no limit
	Timeout  time.Duration // cap per fallback invocation; 0 = no limit

	TessdataDir string
	PSM         int // e.g., 6 is good for uniform block of text
	OEM         int // 1 = LSTM; leave 0 to use default
}

// CommandOCR is a ready-made OCRFallback backed by pdftoppm + tesseract.
// Producing raw entity candidates stays out of scope; this only turns
// pixels into page text for the quality gate.
type CommandOCR struct {
	cfg    CommandOCRConfig
	runner Runner
	logger *slog.Logger
}

func NewCommandOCR(cfg CommandOCRConfig, logger *slog.Logger) *CommandOCR {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &CommandOCR{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Fallback adapts the command pipeline to the OCRFallback contract,
// bounding each invocation by the configured timeout so a hung binary
// cannot stall intake.
func (c *CommandOCR) Fallback() OCRFallback {
	return func(ctx context.Context, path string) (OCRResult, error) {
		if c.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
			defer cancel()
		}
		return c.Extract(ctx, path)
	}
}

// Extract OCRs a document. PDFs are rasterized page by page; images go
// straight to tesseract.
func (c *CommandOCR) Extract(ctx context.Context, path string) (OCRResult, error) {
	switch constants.MapExtToFormat(filepath.Ext(path)) {
	case constants.PDF:
		return c.ocrPDF(ctx, path)
	case constants.IMAGE:
		txt, err := c.tesseract(ctx, path)
		if err != nil {
			return OCRResult{}, err
		}
		meta := map[string]any{"ocr_method": "image-ocr", "ocr_lang": c.cfg.Lang}
		if conf, err := c.tsvConfidence(ctx, path); err == nil && conf > 0 {
			meta["ocr_confidence"] = conf
		}
		return OCRResult{Pages: []string{txt}, Source: SourceOCR, Meta: meta}, nil
	default:
		return OCRResult{}, fmt.Errorf("unsupported extension: %q", filepath.Ext(path))
	}
}

func (c *CommandOCR) ocrPDF(ctx context.Context, path string) (OCRResult, error) {
	tmpDir, err := os.MkdirTemp("", "di-pp-*")
	if err != nil {
		return OCRResult{}, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			c.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := c.runner.Run(ctx, c.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", c.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return OCRResult{}, fmt.Errorf("pdftoppm: %w (%s)", err, truncate(string(errb), 512))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if c.cfg.MaxPages > 0 && len(matches) > c.cfg.MaxPages {
		matches = matches[:c.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return OCRResult{}, fmt.Errorf("pdftoppm produced no images")
	}

	pages := make([]string, 0, len(matches))
	for _, img := range matches {
		txt, err := c.tesseract(ctx, img)
		if err != nil {
			c.logger.Warn("page ocr failed", "image", img, "error", err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, txt)
	}
	meta := map[string]any{"ocr_method": "pdf-ocr", "ocr_lang": c.cfg.Lang, "ocr_pages": len(matches)}
	return OCRResult{Pages: pages, Source: SourceOCR, Meta: meta}, nil
}

func (c *CommandOCR) tesseract(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", c.cfg.Lang}
	if c.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", c.cfg.TessdataDir)
	}
	out, errb, err := c.runner.Run(ctx, c.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

// tsvConfidence runs tesseract in TSV mode and returns mean word conf in 0..1.
func (c *CommandOCR) tsvConfidence(ctx context.Context, path string) (float64, error) {
	args := []string{path, "stdout", "-l", c.cfg.Lang}
	if c.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(c.cfg.PSM))
	}
	if c.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(c.cfg.OEM))
	}
	if c.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", c.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, _, err := c.runner.Run(ctx, c.cfg.Tesseract, args...)
	if err != nil {
		return 0, fmt.Errorf("tesseract TSV: %w", err)
	}
	lines := strings.Split(string(out), "\n")
	// conf column is the last; header line includes "conf"
	var sum, n float64
	for i, ln := range lines {
		if i == 0 || len(ln) == 0 {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[len(cols)-1]
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / n / 100.0, nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fraudshield/docintake/internal/common"
	"github.com/fraudshield/docintake/internal/export"
	"github.com/fraudshield/docintake/internal/extract"
	"github.com/fraudshield/docintake/internal/fingerprint"
	"github.com/fraudshield/docintake/internal/pipeline"
	"github.com/fraudshield/docintake/internal/resolve"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := &cobra.Command{
		Use:           "docintake",
		Short:         "Document intake: quality-gated extraction, entity resolution, duplicate detection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		extractCmd(ctx, cfg, logger),
		dedupeCmd(ctx, cfg, logger),
		batchCmd(ctx, cfg, logger),
		exportCmd(ctx, cfg, logger),
		storeCmd(ctx, cfg, logger),
	)

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func logLevel() slog.Level {
	if v := os.Getenv("LOG_LEVEL"); v == "debug" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func newExtractor(cfg *common.Config, logger *slog.Logger) (*extract.Extractor, extract.OCRFallback) {
	ex := extract.NewExtractor(extract.Config{
		PreferNative:     cfg.Extract.PreferNative,
		QualityThreshold: cfg.Extract.QualityThreshold,
	}, logger)
	ocr := extract.NewCommandOCR(extract.CommandOCRConfig{
		Pdftoppm:    cfg.OCR.Pdftoppm,
		Tesseract:   cfg.OCR.Tesseract,
		Lang:        cfg.OCR.Lang,
		DPI:         cfg.OCR.DPI,
		MaxPages:    cfg.OCR.MaxPages,
		Timeout:     cfg.OCR.Timeout,
		TessdataDir: cfg.OCR.TessdataDir,
	}, logger)
	return ex, ocr.Fallback()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func extractCmd(ctx context.Context, cfg *common.Config, logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract the normalized text corpus for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, fallback := newExtractor(cfg, logger)
			corpus := ex.Extract(ctx, args[0], fallback)
			return printJSON(corpus)
		},
	}
}

func dedupeCmd(ctx context.Context, cfg *common.Config, logger *slog.Logger) *cobra.Command {
	var merchant, date, total, currency, geo string
	cmd := &cobra.Command{
		Use:   "dedupe <file-id>",
		Short: "Check a submission against previously seen documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := fingerprint.Open(cfg.Store.Path, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			var amount *float64
			if total != "" {
				f, err := strconv.ParseFloat(total, 64)
				if err != nil {
					return fmt.Errorf("invalid --total: %w", err)
				}
				amount = &f
			}
			verdict := store.CheckDuplicate(ctx, fingerprint.CheckRequest{
				FileID:   args[0],
				Merchant: merchant,
				Date:     date,
				Amount:   amount,
				Currency: currency,
				Geo:      geo,
			})
			return printJSON(verdict)
		},
	}
	cmd.Flags().StringVar(&merchant, "merchant", "", "resolved merchant name")
	cmd.Flags().StringVar(&date, "date", "", "resolved receipt date")
	cmd.Flags().StringVar(&total, "total", "", "resolved total amount")
	cmd.Flags().StringVar(&currency, "currency", "", "currency code")
	cmd.Flags().StringVar(&geo, "geo", "", "geo tag")
	return cmd
}

func batchCmd(ctx context.Context, cfg *common.Config, logger *slog.Logger) *cobra.Command {
	var skipHidden bool
	var xlsxOut string
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Run intake over every supported document under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := fingerprint.Open(cfg.Store.Path, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			ex, fallback := newExtractor(cfg, logger)
			resolver := resolve.NewResolver(resolve.Config{DebugContext: cfg.Resolve.DebugContext}, logger)
			// entity extractors are external collaborators; the CLI runs
			// extraction + dedup only
			intake := pipeline.NewIntake(ex, resolver, store, fallback, nil, logger)

			items, stats, err := intake.ProcessDirectory(ctx, args[0], skipHidden)
			if err != nil {
				return err
			}
			logger.Info("batch done",
				"scanned", stats.Scanned,
				"matched", stats.Matched,
				"succeeded", stats.Succeeded,
				"duplicates", stats.Duplicates,
				"failed", stats.Failed,
			)

			if xlsxOut != "" {
				svc := export.NewService(logger)
				for _, item := range items {
					if item.Err != "" {
						continue
					}
					var results []resolve.Result
					for _, r := range item.Result.Entities {
						results = append(results, r)
					}
					data, err := svc.ExportCandidateRowsXLSX(results, item.Result.DocID)
					if err != nil {
						return err
					}
					out := docXLSXPath(xlsxOut, item.Result.DocID)
					if err := os.WriteFile(out, data, 0o644); err != nil {
						return err
					}
				}
			}
			return printJSON(items)
		},
	}
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "skip hidden files and directories")
	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "write candidate rows to an XLSX file")
	return cmd
}

func exportCmd(ctx context.Context, cfg *common.Config, logger *slog.Logger) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Process one document and write its candidate rows to an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := fingerprint.Open(cfg.Store.Path, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			ex, fallback := newExtractor(cfg, logger)
			resolver := resolve.NewResolver(resolve.Config{DebugContext: cfg.Resolve.DebugContext}, logger)
			intake := pipeline.NewIntake(ex, resolver, store, fallback, nil, logger)

			res, err := intake.Process(ctx, args[0])
			if err != nil {
				return err
			}
			var results []resolve.Result
			for _, r := range res.Entities {
				results = append(results, r)
			}
			data, err := export.NewService(logger).ExportCandidateRowsXLSX(results, res.DocID)
			if err != nil {
				return err
			}
			if out == "" {
				out = defaultExportPath(args[0])
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output XLSX path (default <file>.candidates.xlsx)")
	return cmd
}

// defaultExportPath derives the workbook path from the input document.
func defaultExportPath(in string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + ".candidates.xlsx"
}

// docXLSXPath derives a per-document output file from the --xlsx base path,
// so a batch run does not overwrite one workbook per document.
func docXLSXPath(base, docID string) string {
	ext := filepath.Ext(base)
	if ext == "" {
		ext = ".xlsx"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + "-" + docID + ext
}

func storeCmd(ctx context.Context, cfg *common.Config, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect or reset the fingerprint store",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "count",
			Short: "Print the number of registered submissions",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := fingerprint.Open(cfg.Store.Path, logger)
				if err != nil {
					return err
				}
				defer store.Close()
				n, err := store.Count(ctx)
				if err != nil {
					return err
				}
				fmt.Println(n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every registered fingerprint",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := fingerprint.Open(cfg.Store.Path, logger)
				if err != nil {
					return err
				}
				defer store.Close()
				n, err := store.Clear(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("cleared %d fingerprints\n", n)
				return nil
			},
		},
	)
	return cmd
}

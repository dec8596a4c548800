package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fraudshield/docintake/internal/resolve"
)

// Service produces XLSX bytes from candidate rows for human labeling and
// dataset construction.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

var headers = []string{
	"Doc ID",
	"Entity",
	"Rank",
	"Winner",
	"Value",
	"Score",
	"Source",
	"Line",
	"Raw Line",
	"Reasons",
	"Zone",
	"Confidence",
	"Bucket",
}

// ExportCandidateRowsXLSX returns an XLSX workbook (as bytes) with one row
// per candidate across the given entity results.
func (s *Service) ExportCandidateRowsXLSX(results []resolve.Result, docID string) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Candidates"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	rowIdx := 2
	total := 0
	for _, res := range results {
		for _, row := range res.ToCandidateRows(docID) {
			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, rowIdx)
				_ = f.SetCellValue(sheet, cell, v)
			}
			write(1, row.DocID)
			write(2, row.Entity)
			write(3, row.Rank)
			write(4, row.IsWinner)
			write(5, fmt.Sprintf("%v", row.Value))
			write(6, row.Score)
			write(7, row.Source)
			write(8, row.LineIdx)
			write(9, row.RawLine)
			write(10, strings.Join(row.Reasons, ","))
			write(11, row.Zone)
			if row.Confidence != nil {
				write(12, *row.Confidence)
			}
			if row.Bucket != nil {
				write(13, string(*row.Bucket))
			}
			rowIdx++
			total++
		}
	}

	// drop the default sheet excelize creates
	_ = f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}

	s.logger.Info("candidate rows exported",
		"doc_id", docID,
		"entities", len(results),
		"rows", total,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
